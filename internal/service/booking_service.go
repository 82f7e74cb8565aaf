package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"homebooking/internal/derive"
	"homebooking/internal/domain"
	"homebooking/internal/events"
	"homebooking/internal/metrics"
	"homebooking/internal/models"
	"homebooking/internal/store"
	"homebooking/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrPastDate           = errors.New("booking date must be after today")
	ErrServiceUnavailable = errors.New("service is not available for booking")
	ErrSlotTaken          = errors.New("time slot is not available")
	ErrInvalidDate        = errors.New("date must be YYYY-MM-DD")
)

type BookingService struct {
	store        domain.BookingStore
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	opener       derive.Opener
	now          func() time.Time
	logger       *zerolog.Logger

	// createMu serialises the slot check with the insert.
	createMu sync.Mutex
}

func NewBookingService(
	st domain.BookingStore,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	opener derive.Opener,
	logger *zerolog.Logger,
) *BookingService {
	if opener == nil {
		opener = derive.HashOpen
	}
	return &BookingService{
		store:        st,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		opener:       opener,
		now:          time.Now,
		logger:       logger,
	}
}

// SetClock overrides the clock used for "today" and createdAt.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// ValidateBookingDate accepts only days strictly after today.
func (s *BookingService) ValidateBookingDate(date string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	// YYYY-MM-DD compares lexicographically.
	if date <= s.now().Format(models.DateLayout) {
		return fmt.Errorf("%w: %s", ErrPastDate, date)
	}
	return nil
}

// CreateBooking turns a submitted form into a pending booking for userID.
// The price is fixed from the service at this moment.
func (s *BookingService) CreateBooking(ctx context.Context, form models.BookingForm, userID string) (models.Booking, error) {
	if err := form.Validate(); err != nil {
		return models.Booking{}, err
	}
	if err := s.ValidateBookingDate(form.Date); err != nil {
		return models.Booking{}, err
	}

	booking, err := s.reserve(form, userID)
	if err != nil {
		return models.Booking{}, err
	}
	metrics.IncBookingCreated()

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("service_id", booking.ServiceID).
		Str("date", booking.Date).
		Str("slot", booking.TimeSlot).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, "", "customer")
	s.enqueueSync(ctx, booking, worker.TaskUpsert)

	return booking, nil
}

// reserve checks the slot and stores the booking under createMu. Event
// handlers and the sync queue run after it returns.
func (s *BookingService) reserve(form models.BookingForm, userID string) (models.Booking, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	svc, ok := s.store.ServiceByID(form.ServiceID)
	if !ok {
		return models.Booking{}, fmt.Errorf("%w: %s", store.ErrServiceNotFound, form.ServiceID)
	}
	if !svc.IsActive {
		return models.Booking{}, fmt.Errorf("%w: %s", ErrServiceUnavailable, svc.ID)
	}
	if !derive.SlotAvailable(form.Date, form.TimeSlot, s.store.BookingsSnapshot(), s.opener) {
		return models.Booking{}, fmt.Errorf("%w: %s %s", ErrSlotTaken, form.Date, form.TimeSlot)
	}

	now := s.now()
	booking := models.Booking{
		ID:            "booking-" + uuid.NewString(),
		UserID:        userID,
		ServiceID:     svc.ID,
		Date:          form.Date,
		TimeSlot:      form.TimeSlot,
		Status:        models.StatusPending,
		CustomerName:  form.CustomerName,
		CustomerPhone: form.CustomerPhone,
		CustomerEmail: form.CustomerEmail,
		Address:       form.Address,
		Notes:         form.Notes,
		TotalAmount:   svc.Price,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.AddBooking(booking); err != nil {
		return models.Booking{}, err
	}
	booking.Service = &svc
	return booking, nil
}

// UpdateStatus applies one lifecycle transition on behalf of changedBy.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID string, status models.BookingStatus, changedBy string) (models.Booking, error) {
	prev, _ := s.store.BookingByID(bookingID)

	booking, err := s.store.UpdateBookingStatus(bookingID, status)
	if err != nil {
		return models.Booking{}, err
	}

	s.publishEvent(events.EventBookingStatusChanged, booking, prev.Status, changedBy)
	s.enqueueSync(ctx, booking, worker.TaskUpdateStatus)
	return booking, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, changedBy string) (models.Booking, error) {
	return s.UpdateStatus(ctx, bookingID, models.StatusConfirmed, changedBy)
}

func (s *BookingService) StartBooking(ctx context.Context, bookingID, changedBy string) (models.Booking, error) {
	return s.UpdateStatus(ctx, bookingID, models.StatusInProgress, changedBy)
}

func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, changedBy string) (models.Booking, error) {
	return s.UpdateStatus(ctx, bookingID, models.StatusCompleted, changedBy)
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID, changedBy string) (models.Booking, error) {
	return s.UpdateStatus(ctx, bookingID, models.StatusCancelled, changedBy)
}

// AdvanceBooking moves a booking one step forward (the admin list action).
func (s *BookingService) AdvanceBooking(ctx context.Context, bookingID, changedBy string) (models.Booking, error) {
	current, ok := s.store.BookingByID(bookingID)
	if !ok {
		return models.Booking{}, fmt.Errorf("%w: %s", store.ErrBookingNotFound, bookingID)
	}
	next, ok := models.NextStatus(current.Status)
	if !ok {
		return models.Booking{}, fmt.Errorf("%w: %s is final", models.ErrInvalidTransition, current.Status)
	}
	return s.UpdateStatus(ctx, bookingID, next, changedBy)
}

// AvailableSlots lists the canonical slots for date with availability.
func (s *BookingService) AvailableSlots(date string) ([]models.TimeSlot, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return derive.AvailableSlots(date, s.store.BookingsSnapshot(), s.opener), nil
}

func (s *BookingService) AdminStats() models.AdminStats {
	return derive.AdminStatsFor(s.store.BookingsSnapshot(), s.store.ServicesSnapshot(), s.now())
}

// ListBookings is the admin list: optional status and free-text search.
func (s *BookingService) ListBookings(status models.BookingStatus, search string) []models.Booking {
	return derive.FilterAdminBookings(s.store.BookingsSnapshot(), status, search)
}

func (s *BookingService) UserBookings(userID, tab string) []models.Booking {
	return derive.FilterUserBookings(s.store.UserBookings(userID), tab)
}

func (s *BookingService) UserStats(userID string) models.UserStats {
	return derive.UserDashboardStats(s.store.UserBookings(userID))
}

func (s *BookingService) GetBooking(bookingID string) (models.Booking, error) {
	b, ok := s.store.BookingByID(bookingID)
	if !ok {
		return models.Booking{}, fmt.Errorf("%w: %s", store.ErrBookingNotFound, bookingID)
	}
	return b, nil
}

func (s *BookingService) publishEvent(eventType string, booking models.Booking, prev models.BookingStatus, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		ServiceID:     booking.ServiceID,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		Status:        string(booking.Status),
		PrevStatus:    string(prev),
		Date:          booking.Date,
		TimeSlot:      booking.TimeSlot,
		Amount:        booking.TotalAmount,
		ChangedBy:     changedBy,
		UpdatedAt:     booking.UpdatedAt,
	}
	if booking.Service != nil {
		payload.ServiceTitle = booking.Service.Title
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, &booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
