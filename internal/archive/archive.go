package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"homebooking/internal/config"
	"homebooking/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	filePrefix = "archive_"
	fileSuffix = ".db"
)

const schema = `
CREATE TABLE services (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	category_id TEXT,
	category_name TEXT,
	price REAL NOT NULL,
	duration INTEGER NOT NULL,
	is_active BOOLEAN NOT NULL,
	features TEXT,
	rating REAL,
	review_count INTEGER
);
CREATE TABLE bookings (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	service_id TEXT NOT NULL,
	date TEXT NOT NULL,
	time_slot TEXT NOT NULL,
	status TEXT NOT NULL,
	customer_name TEXT,
	customer_phone TEXT,
	customer_email TEXT,
	address TEXT,
	notes TEXT,
	total_amount REAL NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX idx_bookings_date ON bookings(date);
`

// Source supplies the collections to archive.
type Source interface {
	ServicesSnapshot() []models.Service
	BookingsSnapshot() []models.Booking
}

// Service periodically writes the catalog and bookings into a standalone
// sqlite file and prunes files older than the retention period.
type Service struct {
	source Source
	config config.ArchiveConfig
	now    func() time.Time
	logger *zerolog.Logger
}

func NewService(source Source, cfg config.ArchiveConfig, logger *zerolog.Logger) *Service {
	return &Service{
		source: source,
		config: cfg,
		now:    time.Now,
		logger: logger,
	}
}

func (s *Service) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Archive service is disabled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.config.Schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid archive schedule %q: %w", s.config.Schedule, err)
	}

	s.run(ctx)

	c.Start()
	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Archive service started")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (s *Service) run(ctx context.Context) {
	if _, err := s.PerformArchive(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Archive failed")
	}
	s.CleanupOldArchives()
}

// PerformArchive writes a snapshot and returns its path. The file is built
// under a temporary name and compacted into place with VACUUM INTO, so a
// reader never sees a half-written archive.
func (s *Service) PerformArchive(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("%s%s%s", filePrefix, s.now().Format("20060102_150405"), fileSuffix)
	path := filepath.Join(s.config.StoragePath, name)
	tmpPath := path + ".tmp"
	defer os.Remove(tmpPath)

	db, err := sql.Open("sqlite3", tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return "", fmt.Errorf("failed to create archive schema: %w", err)
	}

	services := s.source.ServicesSnapshot()
	bookings := s.source.BookingsSnapshot()
	if err := writeRows(ctx, db, services, bookings); err != nil {
		return "", err
	}

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	s.logger.Info().
		Str("path", path).
		Int("services", len(services)).
		Int("bookings", len(bookings)).
		Msg("Archive completed successfully")
	return path, nil
}

func writeRows(ctx context.Context, db *sql.DB, services []models.Service, bookings []models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range services {
		svc := &services[i]
		features, err := json.Marshal(svc.Features)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO services (id, title, description, category_id, category_name, price, duration, is_active, features, rating, review_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			svc.ID, svc.Title, svc.Description, svc.Category.ID, svc.Category.Name,
			svc.Price, svc.Duration, svc.IsActive, string(features), svc.Rating, svc.ReviewCount,
		)
		if err != nil {
			return fmt.Errorf("failed to archive service %s: %w", svc.ID, err)
		}
	}

	for i := range bookings {
		b := &bookings[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (id, user_id, service_id, date, time_slot, status, customer_name, customer_phone, customer_email, address, notes, total_amount, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.UserID, b.ServiceID, b.Date, b.TimeSlot, string(b.Status),
			b.CustomerName, b.CustomerPhone, b.CustomerEmail, b.Address, b.Notes,
			b.TotalAmount, b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to archive booking %s: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

// CleanupOldArchives removes archive files older than RetentionDays and
// returns how many were deleted.
func (s *Service) CleanupOldArchives() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	files, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read archive directory for cleanup")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0

	for _, file := range files {
		if file.IsDir() || !isArchiveName(file.Name()) {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("Deleting old archive")
			if err := os.Remove(filepath.Join(s.config.StoragePath, file.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to delete archive")
				continue
			}
			removed++
		}
	}
	return removed
}

func isArchiveName(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// Read loads an archive file back. Joined services on bookings are not
// restored.
func Read(ctx context.Context, path string) ([]models.Service, []models.Booking, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	services, err := readServices(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := readBookings(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	return services, bookings, nil
}

func readServices(ctx context.Context, db *sql.DB) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, category_id, category_name, price, duration, is_active, features, rating, review_count
		FROM services ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var (
			svc      models.Service
			features string
		)
		if err := rows.Scan(&svc.ID, &svc.Title, &svc.Description, &svc.Category.ID, &svc.Category.Name,
			&svc.Price, &svc.Duration, &svc.IsActive, &features, &svc.Rating, &svc.ReviewCount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &svc.Features); err != nil {
			return nil, fmt.Errorf("service %s features: %w", svc.ID, err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func readBookings(ctx context.Context, db *sql.DB) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, service_id, date, time_slot, status, customer_name, customer_phone, customer_email, address, notes, total_amount, created_at, updated_at
		FROM bookings ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var (
			b      models.Booking
			status string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.ServiceID, &b.Date, &b.TimeSlot, &status,
			&b.CustomerName, &b.CustomerPhone, &b.CustomerEmail, &b.Address, &b.Notes,
			&b.TotalAmount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Status = models.BookingStatus(status)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
