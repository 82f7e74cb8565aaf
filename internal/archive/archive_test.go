package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"homebooking/internal/config"
	"homebooking/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	services []models.Service
	bookings []models.Booking
}

func (f *fakeSource) ServicesSnapshot() []models.Service { return f.services }
func (f *fakeSource) BookingsSnapshot() []models.Booking { return f.bookings }

func newSource() *fakeSource {
	created := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	return &fakeSource{
		services: []models.Service{
			{ID: "service-1", Title: "Basic Plumbing", Category: models.ServiceCategory{ID: "cat-1", Name: "Plumbing"}, Price: 75, Duration: 60, IsActive: true, Features: []string{"Leak detection"}, Rating: 4.8, ReviewCount: 124},
			{ID: "service-2", Title: "Painting", Category: models.ServiceCategory{ID: "cat-5", Name: "Painting"}, Price: 120, Duration: 240, IsActive: false},
		},
		bookings: []models.Booking{
			{ID: "booking-1", UserID: "user-1", ServiceID: "service-1", Date: "2024-01-15", TimeSlot: "10:00 AM", Status: models.StatusConfirmed, CustomerName: "John Smith", TotalAmount: 75, CreatedAt: created, UpdatedAt: created},
		},
	}
}

func newArchiveService(t *testing.T, src Source) *Service {
	t.Helper()
	logger := zerolog.Nop()
	s := NewService(src, config.ArchiveConfig{
		Enabled:       true,
		Schedule:      "@daily",
		RetentionDays: 7,
		StoragePath:   filepath.Join(t.TempDir(), "archives"),
	}, &logger)
	s.now = func() time.Time { return time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC) }
	return s
}

func TestPerformArchiveRoundTrip(t *testing.T) {
	src := newSource()
	s := newArchiveService(t, src)

	path, err := s.PerformArchive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "archive_20240201_030000.db", filepath.Base(path))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	services, bookings, err := Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, services, 2)
	require.Len(t, bookings, 1)

	assert.Equal(t, src.services[0].Title, services[0].Title)
	assert.Equal(t, "Plumbing", services[0].Category.Name)
	assert.Equal(t, []string{"Leak detection"}, services[0].Features)
	assert.False(t, services[1].IsActive)

	assert.Equal(t, models.StatusConfirmed, bookings[0].Status)
	assert.Equal(t, 75.0, bookings[0].TotalAmount)
	assert.True(t, src.bookings[0].CreatedAt.Equal(bookings[0].CreatedAt))
}

func TestPerformArchiveEmpty(t *testing.T) {
	s := newArchiveService(t, &fakeSource{})

	path, err := s.PerformArchive(context.Background())
	require.NoError(t, err)

	services, bookings, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, services)
	assert.Empty(t, bookings)
}

func TestReadMissing(t *testing.T) {
	_, _, err := Read(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestCleanupOldArchives(t *testing.T) {
	s := newArchiveService(t, newSource())
	require.NoError(t, os.MkdirAll(s.config.StoragePath, 0o755))

	old := filepath.Join(s.config.StoragePath, "archive_20240101_030000.db")
	fresh := filepath.Join(s.config.StoragePath, "archive_20240131_030000.db")
	other := filepath.Join(s.config.StoragePath, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	longAgo := s.now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, longAgo, longAgo))
	require.NoError(t, os.Chtimes(other, longAgo, longAgo))
	recent := s.now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(fresh, recent, recent))

	assert.Equal(t, 1, s.CleanupOldArchives())

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestCleanupDisabled(t *testing.T) {
	s := newArchiveService(t, newSource())
	s.config.RetentionDays = 0
	assert.Equal(t, 0, s.CleanupOldArchives())
}

func TestStartDisabled(t *testing.T) {
	s := newArchiveService(t, newSource())
	s.config.Enabled = false

	require.NoError(t, s.Start(context.Background()))
	_, err := os.Stat(s.config.StoragePath)
	assert.True(t, os.IsNotExist(err))
}

func TestStartInvalidSchedule(t *testing.T) {
	s := newArchiveService(t, newSource())
	s.config.Schedule = "every now and then"

	assert.Error(t, s.Start(context.Background()))
}

func TestStartRunsImmediately(t *testing.T) {
	s := newArchiveService(t, newSource())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))

	entries, err := os.ReadDir(s.config.StoragePath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "archive_20240201_030000.db", entries[0].Name())
}
