package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"homebooking/internal/domain"
	"homebooking/internal/metrics"
	"homebooking/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrDuplicateID     = errors.New("duplicate id")
)

// State is the initial content of a Store.
type State struct {
	Services    []models.Service
	Categories  []models.ServiceCategory
	Bookings    []models.Booking
	CurrentUser *models.User
}

// Store is the single source of truth for the catalog, the bookings and the
// signed-in user. All mutations go through one lock so there is exactly one
// writer at a time; readers get copies.
type Store struct {
	mu sync.Mutex

	services   *Subject[models.Service]
	categories *Subject[models.ServiceCategory]
	bookings   *Subject[models.Booking]
	// user holds at most one element; empty means signed out.
	user *Subject[models.User]

	authn  domain.Authenticator
	now    func() time.Time
	logger *zerolog.Logger
}

func New(initial State, authn domain.Authenticator, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var users []models.User
	if initial.CurrentUser != nil {
		users = []models.User{*initial.CurrentUser}
	}

	s := &Store{
		services:   NewSubject(initial.Services, models.Service.Clone),
		categories: NewSubject(initial.Categories, nil),
		bookings:   NewSubject(initial.Bookings, nil),
		user:       NewSubject(users, nil),
		authn:      authn,
		now:        time.Now,
		logger:     logger,
	}

	s.services.onChange = subscriberGauge("services")
	s.categories.onChange = subscriberGauge("categories")
	s.bookings.onChange = subscriberGauge("bookings")
	s.user.onChange = subscriberGauge("user")

	return s
}

func subscriberGauge(collection string) func(int) {
	return func(delta int) { metrics.AddSubscriber(collection, float64(delta)) }
}

// SetClock overrides the time source used for updatedAt stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close ends every open snapshot stream.
func (s *Store) Close() {
	s.services.Close()
	s.categories.Close()
	s.bookings.Close()
	s.user.Close()
}

// Services streams the full service list, current value first.
func (s *Store) Services(ctx context.Context) <-chan []models.Service {
	return s.services.Subscribe(ctx)
}

func (s *Store) Categories(ctx context.Context) <-chan []models.ServiceCategory {
	return s.categories.Subscribe(ctx)
}

// Bookings streams the booking list with each booking's service joined in.
func (s *Store) Bookings(ctx context.Context) <-chan []models.Booking {
	return relay(s.bookings.Subscribe(ctx), func(list []models.Booking) []models.Booking {
		return joinServices(list, s.services.Value())
	})
}

// CurrentUserUpdates streams the signed-in user; an empty slice means signed out.
func (s *Store) CurrentUserUpdates(ctx context.Context) <-chan []models.User {
	return s.user.Subscribe(ctx)
}

func (s *Store) ServicesSnapshot() []models.Service {
	return s.services.Value()
}

func (s *Store) CategoriesSnapshot() []models.ServiceCategory {
	return s.categories.Value()
}

func (s *Store) BookingsSnapshot() []models.Booking {
	return joinServices(s.bookings.Value(), s.services.Value())
}

func (s *Store) ServiceByID(id string) (models.Service, bool) {
	for _, svc := range s.services.Value() {
		if svc.ID == id {
			return svc, true
		}
	}
	return models.Service{}, false
}

// ServicesByCategory keeps services whose embedded category has the given id.
func (s *Store) ServicesByCategory(categoryID string) []models.Service {
	var out []models.Service
	for _, svc := range s.services.Value() {
		if svc.Category.ID == categoryID {
			out = append(out, svc)
		}
	}
	return out
}

func (s *Store) BookingByID(id string) (models.Booking, bool) {
	for _, b := range s.BookingsSnapshot() {
		if b.ID == id {
			return b, true
		}
	}
	return models.Booking{}, false
}

// UserBookings lists one customer's bookings in insertion order.
func (s *Store) UserBookings(userID string) []models.Booking {
	var out []models.Booking
	for _, b := range s.BookingsSnapshot() {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}

// AddBooking appends b. Ids are not checked for uniqueness; callers mint them.
// The referenced service must exist at this point.
func (s *Store) AddBooking(b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ServiceByID(b.ServiceID); !ok {
		return fmt.Errorf("add booking %s: %w: %s", b.ID, ErrServiceNotFound, b.ServiceID)
	}

	b.Service = nil
	list := s.bookings.Value()
	list = append(list, b)
	s.bookings.Publish(list)

	s.logger.Debug().Str("booking_id", b.ID).Str("service_id", b.ServiceID).Msg("booking added")
	return nil
}

// UpdateBookingStatus moves a booking along the status lifecycle and stamps
// updatedAt. Unknown ids and illegal transitions are reported, not ignored.
func (s *Store) UpdateBookingStatus(id string, status models.BookingStatus) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.bookings.Value()
	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Warn().Str("booking_id", id).Str("status", string(status)).Msg("status update for unknown booking")
		metrics.IncStatusTransition(string(status), "not_found")
		return models.Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}

	current := list[idx]
	if err := models.ValidateTransition(current.Status, status); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", id).Msg("status update rejected")
		metrics.IncStatusTransition(string(status), "rejected")
		return models.Booking{}, err
	}

	now := s.now()
	if now.Before(current.UpdatedAt) {
		now = current.UpdatedAt
	}
	current.Status = status
	current.UpdatedAt = now
	list[idx] = current
	s.bookings.Publish(list)
	metrics.IncStatusTransition(string(status), "ok")

	return joinServices([]models.Booking{current}, s.services.Value())[0], nil
}

func (s *Store) AddService(svc models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.services.Value()
	for _, existing := range list {
		if existing.ID == svc.ID {
			return fmt.Errorf("add service %s: %w", svc.ID, ErrDuplicateID)
		}
	}
	s.services.Publish(append(list, svc))
	return nil
}

// UpdateService replaces the service with the same id.
func (s *Store) UpdateService(svc models.Service) error {
	return s.mutateService(svc.ID, func(models.Service) models.Service { return svc })
}

// SetServiceActive hides or shows a service in customer listings.
func (s *Store) SetServiceActive(id string, active bool) error {
	return s.mutateService(id, func(cur models.Service) models.Service {
		cur.IsActive = active
		return cur
	})
}

func (s *Store) mutateService(id string, fn func(models.Service) models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.services.Value()
	for i := range list {
		if list[i].ID == id {
			list[i] = fn(list[i])
			s.services.Publish(list)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrServiceNotFound, id)
}

// DeleteService removes a service. Existing bookings keep their serviceId.
func (s *Store) DeleteService(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.services.Value()
	out := list[:0]
	found := false
	for _, svc := range list {
		if svc.ID == id {
			found = true
			continue
		}
		out = append(out, svc)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}
	s.services.Publish(out)
	return nil
}

// Login replaces the current user on a credential match. A failed attempt
// leaves the current user untouched.
func (s *Store) Login(email, password string) bool {
	if s.authn == nil {
		return false
	}
	user, ok := s.authn.Authenticate(email, password)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Publish([]models.User{*user})
	return true
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Publish(nil)
}

func (s *Store) CurrentUser() (models.User, bool) {
	users := s.user.Value()
	if len(users) == 0 {
		return models.User{}, false
	}
	return users[0], true
}

func joinServices(list []models.Booking, services []models.Service) []models.Booking {
	byID := make(map[string]int, len(services))
	for i := range services {
		byID[services[i].ID] = i
	}
	for i := range list {
		list[i].Service = nil
		if idx, ok := byID[list[i].ServiceID]; ok {
			svc := services[idx].Clone()
			list[i].Service = &svc
		}
	}
	return list
}
