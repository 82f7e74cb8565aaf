package service

import (
	"context"
	"time"

	"homebooking/internal/domain"
	"homebooking/internal/models"

	"github.com/rs/zerolog"
)

// DraftService keeps the booking page form between visits.
type DraftService struct {
	stateRepo domain.StateRepository
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewDraftService(stateRepo domain.StateRepository, logger *zerolog.Logger) *DraftService {
	return &DraftService{
		stateRepo: stateRepo,
		now:       time.Now,
		logger:    logger,
	}
}

// GetDraft returns nil without error when the user has no draft.
func (s *DraftService) GetDraft(ctx context.Context, userID string) (*models.BookingDraft, error) {
	draft, err := s.stateRepo.GetDraft(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get booking draft")
		return nil, err
	}
	return draft, nil
}

// SaveDraft replaces the stored form and recomputes the step.
func (s *DraftService) SaveDraft(ctx context.Context, userID string, form models.BookingForm) (*models.BookingDraft, error) {
	draft := &models.BookingDraft{
		UserID:    userID,
		Form:      form,
		UpdatedAt: s.now(),
	}
	draft.Step = draft.NextStep()

	if err := s.stateRepo.SetDraft(ctx, draft); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to save booking draft")
		return nil, err
	}
	return draft, nil
}

// UpdateDraft edits the stored form in place, starting from an empty one.
func (s *DraftService) UpdateDraft(ctx context.Context, userID string, edit func(*models.BookingForm)) (*models.BookingDraft, error) {
	draft, err := s.GetDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	var form models.BookingForm
	if draft != nil {
		form = draft.Form
	}
	edit(&form)
	return s.SaveDraft(ctx, userID, form)
}

func (s *DraftService) ClearDraft(ctx context.Context, userID string) error {
	return s.stateRepo.ClearDraft(ctx, userID)
}
