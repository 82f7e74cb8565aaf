package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"homebooking/internal/domain"
	"homebooking/internal/events"
	"homebooking/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService turns booking events into per-user notifications
// and forwards a short line to the operator notifier when one is set.
type NotificationService struct {
	mu       sync.RWMutex
	byUser   map[string][]models.NotificationData
	reminded map[string]bool

	notifier      domain.Notifier
	notifyTimeout time.Duration
	now           func() time.Time
	logger        *zerolog.Logger
}

func NewNotificationService(notifier domain.Notifier, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		byUser:        make(map[string][]models.NotificationData),
		reminded:      make(map[string]bool),
		notifier:      notifier,
		notifyTimeout: 5 * time.Second,
		now:           time.Now,
		logger:        logger,
	}
}

// Subscribe registers the booking handlers on bus.
func (s *NotificationService) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, s.handleBookingCreated)
	bus.Subscribe(events.EventBookingStatusChanged, s.handleStatusChanged)
}

func (s *NotificationService) handleBookingCreated(e *events.Event) error {
	var p events.BookingEventPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}

	s.Add(models.NotificationData{
		UserID:  p.UserID,
		Title:   "Booking Received",
		Message: fmt.Sprintf("Your booking for %s on %s at %s is pending confirmation.", serviceName(p), p.Date, p.TimeSlot),
		Type:    models.NotificationBooking,
	})
	s.forward(fmt.Sprintf("*New booking* %s\n%s, %s %s\n%s, $%.2f",
		p.BookingID, serviceName(p), p.Date, p.TimeSlot, p.CustomerName, p.Amount))
	return nil
}

func (s *NotificationService) handleStatusChanged(e *events.Event) error {
	var p events.BookingEventPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}

	label := models.BookingStatus(p.Status).Label()
	s.Add(models.NotificationData{
		UserID:  p.UserID,
		Title:   "Booking " + label,
		Message: fmt.Sprintf("Your booking for %s on %s at %s is now %s.", serviceName(p), p.Date, p.TimeSlot, label),
		Type:    models.NotificationUpdate,
	})
	s.forward(fmt.Sprintf("*Booking %s* %s -> %s (by %s)", p.BookingID, p.PrevStatus, p.Status, p.ChangedBy))
	return nil
}

func serviceName(p events.BookingEventPayload) string {
	if p.ServiceTitle != "" {
		return p.ServiceTitle
	}
	return p.ServiceID
}

func (s *NotificationService) forward(text string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.Warn().Err(err).Msg("operator notification failed")
	}
}

// Add stores n for its user, filling id and createdAt when empty.
func (s *NotificationService) Add(n models.NotificationData) models.NotificationData {
	if n.ID == "" {
		n.ID = "notification-" + uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n)
	s.mu.Unlock()
	return n
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(userID string) []models.NotificationData {
	s.mu.RLock()
	out := append([]models.NotificationData(nil), s.byUser[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *NotificationService) UnreadCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.byUser[userID] {
		if !item.IsRead {
			n++
		}
	}
	return n
}

func (s *NotificationService) MarkRead(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
}

// SendReminders adds a reminder for each confirmed booking dated the day
// after now. A booking is reminded at most once. Returns how many were added.
func (s *NotificationService) SendReminders(ctx context.Context, bookings []models.Booking, now time.Time) int {
	tomorrow := now.AddDate(0, 0, 1).Format(models.DateLayout)

	sent := 0
	for _, b := range bookings {
		if ctx.Err() != nil {
			break
		}
		if b.Status != models.StatusConfirmed || b.Date != tomorrow {
			continue
		}

		key := b.ID + "|" + b.Date
		s.mu.Lock()
		done := s.reminded[key]
		s.reminded[key] = true
		s.mu.Unlock()
		if done {
			continue
		}

		title := b.ServiceID
		if b.Service != nil {
			title = b.Service.Title
		}
		s.Add(models.NotificationData{
			UserID:  b.UserID,
			Title:   "Upcoming Service Tomorrow",
			Message: fmt.Sprintf("Reminder: %s is scheduled for %s at %s.", title, b.Date, b.TimeSlot),
			Type:    models.NotificationReminder,
		})
		sent++
	}

	if sent > 0 {
		s.logger.Info().Int("count", sent).Str("date", tomorrow).Msg("reminders sent")
		s.forward(fmt.Sprintf("Sent %d reminder(s) for %s", sent, tomorrow))
	}
	return sent
}
