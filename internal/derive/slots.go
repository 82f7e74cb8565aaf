package derive

import (
	"hash/fnv"
	"math/rand/v2"
	"sync"

	"homebooking/internal/models"
)

// openPercent is the share of slots open before reservations are applied.
const openPercent = 70

// Opener reports whether a slot label is offered at all on a date, before
// existing bookings are taken into account.
type Opener func(date, label string) bool

// HashOpen is a stable opener: the same date and label always give the same
// answer, with roughly openPercent of slots open.
func HashOpen(date, label string) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(date))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(label))
	return h.Sum32()%100 < openPercent
}

// RandomOpen draws every slot independently on each call. A nil rng uses
// the package-level source.
func RandomOpen(rng *rand.Rand) Opener {
	var mu sync.Mutex
	return func(string, string) bool {
		if rng == nil {
			return rand.IntN(100) < openPercent
		}
		mu.Lock()
		defer mu.Unlock()
		return rng.IntN(100) < openPercent
	}
}

// ReservedSlots collects the labels taken on date by bookings that still
// hold their slot.
func ReservedSlots(date string, bookings []models.Booking) map[string]bool {
	reserved := make(map[string]bool)
	for _, b := range bookings {
		if b.Date == date && b.Status != models.StatusCancelled {
			reserved[b.TimeSlot] = true
		}
	}
	return reserved
}

// AvailableSlots lists every canonical slot for date. A slot is available
// when the opener offers it and no active booking holds it.
func AvailableSlots(date string, bookings []models.Booking, open Opener) []models.TimeSlot {
	if open == nil {
		open = HashOpen
	}
	reserved := ReservedSlots(date, bookings)

	slots := make([]models.TimeSlot, 0, len(models.SlotLabels))
	for _, label := range models.SlotLabels {
		slots = append(slots, models.TimeSlot{
			Time:      label,
			Available: !reserved[label] && open(date, label),
		})
	}
	return slots
}

// SlotAvailable checks a single label the same way AvailableSlots does.
func SlotAvailable(date, label string, bookings []models.Booking, open Opener) bool {
	if !models.IsSlotLabel(label) {
		return false
	}
	if open == nil {
		open = HashOpen
	}
	return !ReservedSlots(date, bookings)[label] && open(date, label)
}
