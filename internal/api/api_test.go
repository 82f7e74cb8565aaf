package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homebooking/internal/config"
	"homebooking/internal/events"
	"homebooking/internal/models"
	"homebooking/internal/repository"
	"homebooking/internal/service"
	"homebooking/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth map[string]models.User

func (s stubAuth) Authenticate(email, password string) (*models.User, bool) {
	u, ok := s[email+"/"+password]
	if !ok {
		return nil, false
	}
	return &u, true
}

var (
	testNow  = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	testUser = models.User{ID: "user-1", Name: "John Doe", Email: "user@test.com", Role: models.RoleUser}
	testAuth = stubAuth{
		"admin@test.com/admin": {ID: "admin-1", Name: "Admin User", Email: "admin@test.com", Role: models.RoleAdmin},
		"user@test.com/user":   testUser,
	}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testState() store.State {
	ac := models.ServiceCategory{ID: "cat-1", Name: "AC Repair & Maintenance"}
	plumbing := models.ServiceCategory{ID: "cat-2", Name: "Plumbing Services"}
	cleaning := models.ServiceCategory{ID: "cat-3", Name: "House Cleaning"}
	user := testUser
	return store.State{
		Services: []models.Service{
			{ID: "service-1", Title: "AC Installation & Repair", Category: ac, Price: 150, Duration: 120, IsActive: true, Rating: 4.8, ReviewCount: 124},
			{ID: "service-2", Title: "Plumbing Emergency Fix", Category: plumbing, Price: 100, Duration: 60, IsActive: true, Rating: 4.9, ReviewCount: 89},
			{ID: "service-3", Title: "Deep House Cleaning", Category: cleaning, Price: 80, Duration: 180, IsActive: true, Rating: 4.7, ReviewCount: 156},
			{ID: "service-4", Title: "Carpet Shampoo", Category: cleaning, Price: 220, Duration: 120, IsActive: false},
		},
		Categories: []models.ServiceCategory{ac, plumbing, cleaning},
		Bookings: []models.Booking{
			{ID: "booking-1", UserID: "user-1", ServiceID: "service-1", Date: "2024-01-15", TimeSlot: "10:00 AM", Status: models.StatusConfirmed, CustomerName: "John Smith", CustomerEmail: "john@example.com", TotalAmount: 150, CreatedAt: day(2024, 1, 8), UpdatedAt: day(2024, 1, 9)},
			{ID: "booking-2", UserID: "user-2", ServiceID: "service-2", Date: "2024-01-16", TimeSlot: "02:00 PM", Status: models.StatusPending, CustomerName: "Sarah Johnson", CustomerEmail: "sarah@example.com", TotalAmount: 100, CreatedAt: day(2024, 1, 9), UpdatedAt: day(2024, 1, 9)},
			{ID: "booking-3", UserID: "user-3", ServiceID: "service-3", Date: "2024-01-05", TimeSlot: "09:00 AM", Status: models.StatusCompleted, CustomerName: "Mike Wilson", CustomerEmail: "mike@example.com", TotalAmount: 80, CreatedAt: day(2024, 1, 2), UpdatedAt: day(2024, 1, 5)},
		},
		CurrentUser: &user,
	}
}

type testEnv struct {
	store         *store.Store
	deps          Deps
	notifications *service.NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	st := store.New(testState(), testAuth, &logger)
	st.SetClock(func() time.Time { return testNow })
	t.Cleanup(st.Close)

	bus := events.NewEventBus()
	notifications := service.NewNotificationService(nil, &logger)
	notifications.Subscribe(bus)

	bookings := service.NewBookingService(st, bus, nil, func(string, string) bool { return true }, &logger)
	bookings.SetClock(func() time.Time { return testNow })
	repo := repository.NewMemoryStateRepository(time.Hour)

	return &testEnv{
		store:         st,
		notifications: notifications,
		deps: Deps{
			Streams:       st,
			Catalog:       service.NewCatalogService(st, bus, &logger),
			Bookings:      bookings,
			Flow:          service.NewBookingFlow(bookings, time.Millisecond, &logger),
			Users:         service.NewUserService(st, repo, 3, time.Minute, &logger),
			Drafts:        service.NewDraftService(repo, &logger),
			Notifications: notifications,
			Now:           func() time.Time { return testNow },
		},
	}
}

func (e *testEnv) server(cfg config.APIConfig) *HTTPServer {
	logger := zerolog.New(io.Discard)
	return NewHTTPServer(cfg, e.deps, &logger)
}

func defaultAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		CORS:    config.APICORSConfig{AllowOrigins: []string{"http://localhost:4200"}},
	}
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
