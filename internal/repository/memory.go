package repository

import (
	"context"
	"sync"
	"time"

	"homebooking/internal/models"
)

// MemoryStateRepository keeps drafts and rate-limit counters in process.
// It is the fallback when redis is unavailable.
type MemoryStateRepository struct {
	drafts     sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	now        func() time.Time
}

type draftEntry struct {
	draft     models.BookingDraft
	expiresAt time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemoryStateRepository) GetDraft(ctx context.Context, userID string) (*models.BookingDraft, error) {
	val, ok := r.drafts.Load(userID)
	if !ok {
		return nil, nil
	}
	entry := val.(*draftEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.drafts.Delete(userID)
		return nil, nil
	}
	draft := entry.draft
	return &draft, nil
}

func (r *MemoryStateRepository) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	entry := &draftEntry{draft: *draft}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.drafts.Store(draft.UserID, entry)
	return nil
}

func (r *MemoryStateRepository) ClearDraft(ctx context.Context, userID string) error {
	r.drafts.Delete(userID)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.count == 0 || now.After(entry.expiresAt) {
		entry.count = 1
		entry.expiresAt = now.Add(window)
	} else {
		entry.count++
	}

	return entry.count <= limit, nil
}
