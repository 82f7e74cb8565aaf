package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"homebooking/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetDraft(ctx context.Context, userID string) (*models.BookingDraft, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDraft), args.Error(1)
}

func (m *mockRepo) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *mockRepo) ClearDraft(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverStateRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		draft := &models.BookingDraft{UserID: "u1"}
		primary.On("GetDraft", ctx, "u1").Return(draft, nil).Once()

		got, err := repo.GetDraft(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, draft, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		draft := &models.BookingDraft{UserID: "u2"}
		primary.On("GetDraft", ctx, "u2").Return(nil, errors.New("fail")).Once()
		fallback.On("GetDraft", ctx, "u2").Return(draft, nil).Once()

		got, err := repo.GetDraft(ctx, "u2")
		assert.NoError(t, err)
		assert.Equal(t, draft, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DownWithinWindowSkipsPrimary", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now()
		fallback.On("GetDraft", ctx, "u22").Return(nil, nil).Once()

		_, err := repo.GetDraft(ctx, "u22")
		assert.NoError(t, err)
		primary.AssertNotCalled(t, "GetDraft", ctx, "u22")
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		draft := &models.BookingDraft{UserID: "u3"}
		primary.On("GetDraft", ctx, "u3").Return(draft, nil).Once()

		got, err := repo.GetDraft(ctx, "u3")
		assert.NoError(t, err)
		assert.Equal(t, draft, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetDraft", ctx, "u33").Return(nil, errors.New("still fail")).Once()
		fallback.On("GetDraft", ctx, "u33").Return(nil, nil).Once()

		_, err := repo.GetDraft(ctx, "u33")
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		assert.False(t, repo.recoveryDue())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetDraftSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		draft := &models.BookingDraft{UserID: "u77"}
		primary.On("SetDraft", ctx, draft).Return(nil).Once()

		assert.NoError(t, repo.SetDraft(ctx, draft))
		primary.AssertExpectations(t)
	})

	t.Run("ClearDraftSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("ClearDraft", ctx, "u88").Return(nil).Once()

		assert.NoError(t, repo.ClearDraft(ctx, "u88"))
		primary.AssertExpectations(t)
	})

	t.Run("CheckRateLimitSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, "login:a", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "login:a", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("SetDraftFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		draft := &models.BookingDraft{UserID: "u4"}
		primary.On("SetDraft", ctx, draft).Return(errors.New("fail")).Once()
		fallback.On("SetDraft", ctx, draft).Return(nil).Once()

		assert.NoError(t, repo.SetDraft(ctx, draft))
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("ClearDraftFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("ClearDraft", ctx, "u5").Return(errors.New("fail")).Once()
		fallback.On("ClearDraft", ctx, "u5").Return(nil).Once()

		assert.NoError(t, repo.ClearDraft(ctx, "u5"))
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, "login:b", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "login:b", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "login:b", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("WritesStayOnFallbackWhileDown", func(t *testing.T) {
		repo.isDown.Store(true)
		draft := &models.BookingDraft{UserID: "u44"}
		fallback.On("SetDraft", ctx, draft).Return(nil).Once()
		fallback.On("ClearDraft", ctx, "u55").Return(nil).Once()
		fallback.On("CheckRateLimit", ctx, "login:c", 10, time.Minute).Return(true, nil).Once()

		assert.NoError(t, repo.SetDraft(ctx, draft))
		assert.NoError(t, repo.ClearDraft(ctx, "u55"))
		allowed, err := repo.CheckRateLimit(ctx, "login:c", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
	})
}
