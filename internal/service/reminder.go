package service

import (
	"context"
	"time"

	"homebooking/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ReminderScheduler runs the daily reminder pass on a cron schedule.
type ReminderScheduler struct {
	cron          *cron.Cron
	notifications *NotificationService
	catalog       domain.Catalog
	schedule      string
	now           func() time.Time
	logger        *zerolog.Logger
}

func NewReminderScheduler(notifications *NotificationService, catalog domain.Catalog, schedule string, logger *zerolog.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		cron:          cron.New(),
		notifications: notifications,
		catalog:       catalog,
		schedule:      schedule,
		now:           time.Now,
		logger:        logger,
	}
}

// Start registers the job and runs the scheduler until ctx ends.
func (r *ReminderScheduler) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.schedule, func() { r.RunOnce(ctx) }); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info().Str("schedule", r.schedule).Msg("Reminder scheduler started")

	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
	}()
	return nil
}

func (r *ReminderScheduler) RunOnce(ctx context.Context) int {
	return r.notifications.SendReminders(ctx, r.catalog.BookingsSnapshot(), r.now())
}
