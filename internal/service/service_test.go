package service

import (
	"context"
	"io"
	"testing"
	"time"

	"homebooking/internal/models"
	"homebooking/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type stubAuth map[string]models.User

func (s stubAuth) Authenticate(email, password string) (*models.User, bool) {
	u, ok := s[email+"/"+password]
	if !ok {
		return nil, false
	}
	return &u, true
}

var testAuth = stubAuth{
	"admin@test.com/admin": {ID: "admin-1", Name: "Admin User", Email: "admin@test.com", Role: models.RoleAdmin},
	"user@test.com/user":   {ID: "user-1", Name: "John Doe", Email: "user@test.com", Role: models.RoleUser},
}

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testState() store.State {
	cleaning := models.ServiceCategory{ID: "cat-3", Name: "House Cleaning"}
	plumbing := models.ServiceCategory{ID: "cat-2", Name: "Plumbing Services"}
	services := []models.Service{
		{ID: "service-1", Title: "AC Installation & Repair", Category: models.ServiceCategory{ID: "cat-1", Name: "AC Repair & Maintenance"}, Price: 150, Duration: 120, IsActive: true},
		{ID: "service-2", Title: "Plumbing Emergency Fix", Category: plumbing, Price: 100, Duration: 60, IsActive: true},
		{ID: "service-3", Title: "Deep House Cleaning", Category: cleaning, Price: 80, Duration: 180, IsActive: true},
		{ID: "service-4", Title: "Window Washing", Category: cleaning, Price: 40, Duration: 60, IsActive: false},
	}
	bookings := []models.Booking{
		{ID: "booking-1", UserID: "user-1", ServiceID: "service-1", Date: "2024-01-15", TimeSlot: "10:00 AM", Status: models.StatusConfirmed, CustomerName: "John Smith", TotalAmount: 150, CreatedAt: day(2024, 1, 8), UpdatedAt: day(2024, 1, 9)},
		{ID: "booking-2", UserID: "user-2", ServiceID: "service-2", Date: "2024-01-16", TimeSlot: "02:00 PM", Status: models.StatusPending, CustomerName: "Sarah Johnson", TotalAmount: 100, CreatedAt: day(2024, 1, 9), UpdatedAt: day(2024, 1, 9)},
		{ID: "booking-3", UserID: "user-1", ServiceID: "service-3", Date: "2024-01-05", TimeSlot: "09:00 AM", Status: models.StatusCompleted, CustomerName: "John Smith", TotalAmount: 80, CreatedAt: day(2024, 1, 2), UpdatedAt: day(2024, 1, 5)},
	}
	return store.State{
		Services:   services,
		Categories: []models.ServiceCategory{{ID: "cat-1", Name: "AC Repair & Maintenance"}, plumbing, cleaning},
		Bookings:   bookings,
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(testState(), testAuth, testLogger())
	s.SetClock(func() time.Time { return testNow })
	t.Cleanup(s.Close)
	return s
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func allOpen(string, string) bool { return true }

func validForm() models.BookingForm {
	return models.BookingForm{
		ServiceID:     "service-2",
		Date:          "2024-01-20",
		TimeSlot:      "11:00 AM",
		CustomerName:  "Jane Roe",
		CustomerPhone: "+1 555 0100",
		CustomerEmail: "jane@example.com",
		Address:       "1 Main St",
	}
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, tt string, b *models.Booking) error {
	return m.Called(ctx, tt, b).Error(0)
}
