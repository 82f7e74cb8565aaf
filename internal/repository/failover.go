package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"homebooking/internal/domain"
	"homebooking/internal/models"

	"github.com/rs/zerolog"
)

// recoveryWindow is how long the primary stays bypassed after a failure.
const recoveryWindow = time.Minute

// FailoverStateRepository serves from primary (redis) and switches to the
// fallback (memory) after the first primary error. Reads retry the primary
// once the recovery window passes.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error, op string) {
	r.logger.Error().Err(err).Str("op", op).Msg("Primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverStateRepository) recoveryDue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastCheck) > recoveryWindow
}

func (r *FailoverStateRepository) GetDraft(ctx context.Context, userID string) (*models.BookingDraft, error) {
	if !r.isDown.Load() {
		draft, err := r.primary.GetDraft(ctx, userID)
		if err == nil {
			return draft, nil
		}
		r.markDown(err, "get_draft")
	} else if r.recoveryDue() {
		draft, err := r.primary.GetDraft(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Primary state repository recovered")
			return draft, nil
		}
		r.markDown(err, "get_draft")
	}

	return r.fallback.GetDraft(ctx, userID)
}

func (r *FailoverStateRepository) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	if !r.isDown.Load() {
		err := r.primary.SetDraft(ctx, draft)
		if err == nil {
			return nil
		}
		r.markDown(err, "set_draft")
	}

	return r.fallback.SetDraft(ctx, draft)
}

func (r *FailoverStateRepository) ClearDraft(ctx context.Context, userID string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearDraft(ctx, userID)
		if err == nil {
			return nil
		}
		r.markDown(err, "clear_draft")
	}

	return r.fallback.ClearDraft(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err, "rate_limit")
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
