package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homebooking/internal/derive"
	"homebooking/internal/domain"
	"homebooking/internal/events"
	"homebooking/internal/models"
	"homebooking/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidService  = errors.New("invalid service")
	ErrUnknownCategory = errors.New("unknown category")
)

type CatalogService struct {
	store    domain.CatalogStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewCatalogService(st domain.CatalogStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:    st,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ListServices applies the services page filter. A malformed price token is
// ignored by the filter and logged here.
func (s *CatalogService) ListServices(filter derive.ServiceFilter) []models.Service {
	if err := filter.Validate(); err != nil {
		s.logger.Debug().Err(err).Str("price", filter.PriceRange).Msg("price filter ignored")
	}
	return derive.FilterServices(s.store.ServicesSnapshot(), filter)
}

func (s *CatalogService) FeaturedServices(n int) []models.Service {
	return derive.FeaturedServices(s.store.ServicesSnapshot(), n)
}

func (s *CatalogService) Categories() []models.ServiceCategory {
	return s.store.CategoriesSnapshot()
}

func (s *CatalogService) GetService(id string) (models.Service, error) {
	svc, ok := s.store.ServiceByID(id)
	if !ok {
		return models.Service{}, fmt.Errorf("%w: %s", store.ErrServiceNotFound, id)
	}
	return svc, nil
}

// CreateService adds a service. The category is resolved by id so the
// embedded copy matches the category list; a missing id is minted.
func (s *CatalogService) CreateService(ctx context.Context, svc models.Service) (models.Service, error) {
	if svc.ID == "" {
		svc.ID = "service-" + uuid.NewString()
	}
	if err := s.prepare(&svc); err != nil {
		return models.Service{}, err
	}
	if err := s.store.AddService(svc); err != nil {
		return models.Service{}, err
	}

	s.logger.Info().Str("service_id", svc.ID).Str("title", svc.Title).Msg("service created")
	s.publish(svc.ID, "create", svc.IsActive)
	return svc, nil
}

func (s *CatalogService) UpdateService(ctx context.Context, svc models.Service) (models.Service, error) {
	if err := s.prepare(&svc); err != nil {
		return models.Service{}, err
	}
	if err := s.store.UpdateService(svc); err != nil {
		return models.Service{}, err
	}

	s.publish(svc.ID, "update", svc.IsActive)
	return svc, nil
}

func (s *CatalogService) SetServiceActive(ctx context.Context, id string, active bool) error {
	if err := s.store.SetServiceActive(id, active); err != nil {
		return err
	}
	action := "deactivate"
	if active {
		action = "activate"
	}
	s.publish(id, action, active)
	return nil
}

func (s *CatalogService) DeleteService(ctx context.Context, id string) error {
	if err := s.store.DeleteService(id); err != nil {
		return err
	}
	s.logger.Info().Str("service_id", id).Msg("service deleted")
	s.publish(id, "delete", false)
	return nil
}

func (s *CatalogService) prepare(svc *models.Service) error {
	svc.Title = strings.TrimSpace(svc.Title)
	switch {
	case svc.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidService)
	case svc.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidService)
	case svc.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidService)
	case svc.Rating < 0 || svc.Rating > 5:
		return fmt.Errorf("%w: rating must be within 0..5", ErrInvalidService)
	}

	for _, c := range s.store.CategoriesSnapshot() {
		if c.ID == svc.Category.ID {
			svc.Category = c
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, svc.Category.ID)
}

func (s *CatalogService) publish(id, action string, active bool) {
	if s.eventBus == nil {
		return
	}
	payload := events.ServiceEventPayload{ServiceID: id, Action: action, IsActive: active}
	if err := s.eventBus.PublishJSON(events.EventServiceChanged, payload); err != nil {
		s.logger.Error().Err(err).Str("service_id", id).Msg("publish event error")
	}
}
