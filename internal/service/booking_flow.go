package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"homebooking/internal/metrics"
	"homebooking/internal/models"

	"github.com/rs/zerolog"
)

var ErrSubmissionCancelled = errors.New("booking submission cancelled")

// Submission is one pending booking submission. The booking is committed
// after the flow delay unless Cancel (or the start context) ends it first.
type Submission struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	booking models.Booking
	err     error
}

// Done is closed once the submission has committed, failed or been cancelled.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Cancel stops a submission that has not committed yet. It is a no-op after
// Done is closed.
func (s *Submission) Cancel() {
	s.cancel()
}

// Wait blocks until the submission finishes. If ctx ends first the
// submission is cancelled and Wait reports the final outcome.
func (s *Submission) Wait(ctx context.Context) (models.Booking, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		s.Cancel()
		<-s.done
	}
	return s.Result()
}

// Result returns the outcome; before Done it reports nothing useful.
func (s *Submission) Result() (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booking, s.err
}

func (s *Submission) finish(b models.Booking, err error) {
	s.mu.Lock()
	s.booking, s.err = b, err
	s.mu.Unlock()
	close(s.done)
}

// BookingFlow is the booking page's submit step: a short processing delay
// during which the customer can still back out.
type BookingFlow struct {
	bookings *BookingService
	delay    time.Duration
	after    func(time.Duration) <-chan time.Time
	logger   *zerolog.Logger
}

func NewBookingFlow(bookings *BookingService, delay time.Duration, logger *zerolog.Logger) *BookingFlow {
	if delay < 0 {
		delay = 0
	}
	return &BookingFlow{
		bookings: bookings,
		delay:    delay,
		after:    time.After,
		logger:   logger,
	}
}

// Start validates the form and schedules the commit. Form errors are
// returned immediately and no submission is created.
func (f *BookingFlow) Start(ctx context.Context, form models.BookingForm, userID string) (*Submission, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Submission{done: make(chan struct{}), cancel: cancel}

	timer := f.after(f.delay)
	go func() {
		defer cancel()

		select {
		case <-subCtx.Done():
			metrics.IncSubmissionCancelled()
			f.logger.Info().Str("user_id", userID).Str("service_id", form.ServiceID).Msg("booking submission cancelled")
			sub.finish(models.Booking{}, ErrSubmissionCancelled)
			return
		case <-timer:
		}

		// Past this point the commit goes through even if Cancel races it.
		booking, err := f.bookings.CreateBooking(context.WithoutCancel(subCtx), form, userID)
		if err != nil {
			f.logger.Warn().Err(err).Str("user_id", userID).Msg("booking submission failed")
		}
		sub.finish(booking, err)
	}()

	return sub, nil
}

// Submit is Start followed by Wait.
func (f *BookingFlow) Submit(ctx context.Context, form models.BookingForm, userID string) (models.Booking, error) {
	sub, err := f.Start(ctx, form, userID)
	if err != nil {
		return models.Booking{}, err
	}
	return sub.Wait(ctx)
}

func (f *BookingFlow) Delay() time.Duration {
	return f.delay
}
