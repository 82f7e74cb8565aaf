package models

import "time"

// DateLayout is the wire format of Booking.Date and slot queries.
const DateLayout = "2006-01-02"

// SlotLabels are the canonical bookable hours, 09:00 through 18:00.
var SlotLabels = []string{
	"09:00 AM",
	"10:00 AM",
	"11:00 AM",
	"12:00 PM",
	"01:00 PM",
	"02:00 PM",
	"03:00 PM",
	"04:00 PM",
	"05:00 PM",
	"06:00 PM",
}

// IsSlotLabel reports whether label is one of SlotLabels.
func IsSlotLabel(label string) bool {
	for _, l := range SlotLabels {
		if l == label {
			return true
		}
	}
	return false
}

const (
	// DefaultSubmitDelay is the artificial latency before a submitted booking is committed.
	DefaultSubmitDelay = 2 * time.Second

	// DefaultDraftTTL how long an unfinished booking form is kept.
	DefaultDraftTTL = 24 * time.Hour

	// PopularServicesLimit caps AdminStats.PopularServices.
	PopularServicesLimit = 5

	// FeaturedServicesLimit caps the home page selection.
	FeaturedServicesLimit = 6

	// LoginAttemptsLimit per email inside LoginAttemptsWindow.
	LoginAttemptsLimit  = 5
	LoginAttemptsWindow = time.Minute

	// ReminderSchedule is the default cron expression for next-day reminders.
	ReminderSchedule = "0 9 * * *"

	// SheetsCacheTTL bounds how long a cached sheet row index is trusted.
	SheetsCacheTTL = time.Hour

	// WorkerQueueSize is the in-memory sheets queue capacity.
	WorkerQueueSize = 128
)
