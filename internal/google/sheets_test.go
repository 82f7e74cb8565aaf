package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"homebooking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheetsAPI answers the handful of Values calls the mirror makes and
// records every request path.
type fakeSheetsAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	idColumn [][]interface{}
	appended string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sheet_id/values/")

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+path)
	if f.bodies == nil {
		f.bodies = make(map[string]string)
	}
	f.bodies[path] = string(body)
	f.mu.Unlock()

	switch {
	case strings.HasSuffix(path, ":append"):
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: f.appended},
		})
	case strings.HasSuffix(path, ":clear"):
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: f.idColumn})
	default:
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	}
}

func (f *fakeSheetsAPI) seen(req string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == req {
			return true
		}
	}
	return false
}

func (f *fakeSheetsAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func setupMockServer(t *testing.T, api *fakeSheetsAPI) *SheetsService {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	return NewWithService(srv, "sheet_id", nil)
}

func sampleBooking(id string) *models.Booking {
	svc := models.Service{ID: "service-1", Title: "AC Installation & Repair"}
	return &models.Booking{
		ID:            id,
		UserID:        "user-1",
		ServiceID:     "service-1",
		Date:          "2024-01-15",
		TimeSlot:      "10:00 AM",
		Status:        models.StatusInProgress,
		CustomerName:  "John Smith",
		CustomerPhone: "+1234567890",
		CustomerEmail: "john@email.com",
		TotalAmount:   150,
		CreatedAt:     time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC),
		Service:       &svc,
	}
}

func TestBookingRowValues(t *testing.T) {
	values := bookingRowValues(sampleBooking("booking-1"))

	expected := []interface{}{
		"booking-1", "user-1", "service-1", "AC Installation & Repair",
		"2024-01-15", "10:00 AM", "In Progress",
		"John Smith", "+1234567890", "john@email.com", float64(150),
		"2024-01-10 10:00:00", "2024-01-10 11:00:00",
	}
	assert.Equal(t, expected, values)
	assert.Len(t, bookingHeaders, len(values))
}

func TestRowFromRange(t *testing.T) {
	tests := map[string]int{
		"Bookings!A10:M10": 10,
		"Bookings!A2":      2,
		"C7:C7":            7,
	}
	for in, want := range tests {
		got, ok := rowFromRange(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "Bookings!A:A", "Bookings!A0"} {
		_, ok := rowFromRange(bad)
		assert.False(t, ok, bad)
	}
}

func TestCacheOperations(t *testing.T) {
	s := NewWithService(nil, "sheet_id", nil)

	s.setCachedRow("booking-100", 5)
	row, ok := s.getCachedRow("booking-100")
	assert.True(t, ok)
	assert.Equal(t, 5, row)

	s.deleteCacheRow("booking-100")
	_, ok = s.getCachedRow("booking-100")
	assert.False(t, ok)

	s.setCachedRow("booking-101", 6)
	s.ClearCache()
	_, ok = s.getCachedRow("booking-101")
	assert.False(t, ok)
}

func TestSheetsService_TestConnection(t *testing.T) {
	api := &fakeSheetsAPI{}
	s := setupMockServer(t, api)

	require.NoError(t, s.TestConnection(context.Background()))
	assert.True(t, api.seen("GET Bookings!A1"))
}

func TestSheetsService_WarmUpCache(t *testing.T) {
	api := &fakeSheetsAPI{idColumn: [][]interface{}{{"ID"}, {"booking-1"}, {}, {"booking-3"}}}
	s := setupMockServer(t, api)

	require.NoError(t, s.WarmUpCache(context.Background()))

	row, ok := s.getCachedRow("booking-1")
	assert.True(t, ok)
	assert.Equal(t, 2, row)
	row, _ = s.getCachedRow("booking-3")
	assert.Equal(t, 4, row)
	_, ok = s.getCachedRow("ID")
	assert.False(t, ok)
}

func TestSheetsService_AppendBooking(t *testing.T) {
	api := &fakeSheetsAPI{appended: "Bookings!A10:M10"}
	s := setupMockServer(t, api)

	require.NoError(t, s.AppendBooking(context.Background(), sampleBooking("booking-789")))

	assert.True(t, api.seen("POST Bookings!A:A:append"))
	row, ok := s.getCachedRow("booking-789")
	assert.True(t, ok)
	assert.Equal(t, 10, row)
}

func TestSheetsService_UpsertBooking_Update(t *testing.T) {
	api := &fakeSheetsAPI{}
	s := setupMockServer(t, api)
	s.setCachedRow("booking-123", 2)

	require.NoError(t, s.UpsertBooking(context.Background(), sampleBooking("booking-123")))
	assert.True(t, api.seen("PUT Bookings!A2:M2"))
}

func TestSheetsService_UpsertBooking_Append(t *testing.T) {
	api := &fakeSheetsAPI{idColumn: [][]interface{}{{"ID"}}, appended: "Bookings!A2:M2"}
	s := setupMockServer(t, api)

	require.NoError(t, s.UpsertBooking(context.Background(), sampleBooking("booking-new")))
	assert.True(t, api.seen("GET Bookings!A:A"))
	assert.True(t, api.seen("POST Bookings!A:A:append"))

	assert.Error(t, s.UpsertBooking(context.Background(), nil))
}

func TestSheetsService_DeleteBookingRow(t *testing.T) {
	api := &fakeSheetsAPI{}
	s := setupMockServer(t, api)
	s.setCachedRow("booking-456", 3)

	require.NoError(t, s.DeleteBookingRow(context.Background(), "booking-456"))
	assert.True(t, api.seen("POST Bookings!A3:M3:clear"))

	_, ok := s.getCachedRow("booking-456")
	assert.False(t, ok)
}

func TestSheetsService_UpdateBookingStatus(t *testing.T) {
	api := &fakeSheetsAPI{}
	s := setupMockServer(t, api)
	s.setCachedRow("booking-123", 2)

	updated := time.Date(2024, 1, 16, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.UpdateBookingStatus(context.Background(), "booking-123", models.StatusConfirmed, updated))

	assert.True(t, api.seen("PUT Bookings!G2:G2"))
	assert.True(t, api.seen("PUT Bookings!M2:M2"))
	assert.Contains(t, api.bodies["Bookings!G2:G2"], "Confirmed")
	assert.Contains(t, api.bodies["Bookings!M2:M2"], "2024-01-16 09:30:00")
}

func TestSheetsService_FindBookingRow(t *testing.T) {
	api := &fakeSheetsAPI{idColumn: [][]interface{}{{"ID"}, {"booking-998"}, {"booking-999"}}}
	s := setupMockServer(t, api)
	ctx := context.Background()

	row, err := s.FindBookingRow(ctx, "booking-999")
	require.NoError(t, err)
	assert.Equal(t, 3, row)

	// second lookup is served from the cache
	before := api.count()
	row, err = s.FindBookingRow(ctx, "booking-999")
	require.NoError(t, err)
	assert.Equal(t, 3, row)
	assert.Equal(t, before, api.count())

	_, err = s.FindBookingRow(ctx, "booking-missing")
	assert.ErrorIs(t, err, ErrRowNotFound)

	_, err = s.FindBookingRow(ctx, "")
	assert.Error(t, err)
}

func TestSheetsService_ReplaceBookingsSheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	s := setupMockServer(t, api)

	bookings := []models.Booking{*sampleBooking("booking-1"), *sampleBooking("booking-2")}
	require.NoError(t, s.ReplaceBookingsSheet(context.Background(), bookings))

	assert.True(t, api.seen("POST Bookings!A:Z:clear"))
	assert.True(t, api.seen("PUT Bookings!A1"))
	row, _ := s.getCachedRow("booking-2")
	assert.Equal(t, 3, row)
}

func TestServiceAccountEmail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email":"mirror@project.iam.gserviceaccount.com"}`), 0o600))

	email, err := ServiceAccountEmail(path)
	require.NoError(t, err)
	assert.Equal(t, "mirror@project.iam.gserviceaccount.com", email)

	_, err = ServiceAccountEmail(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewSheetsServiceBadCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

	_, err := NewSheetsService(context.Background(), path, "sheet_id", nil)
	assert.Error(t, err)
}
