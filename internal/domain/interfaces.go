package domain

import (
	"context"
	"time"

	"homebooking/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(email, password string) (*models.User, bool)
}

// Catalog is the read side of the store used by derivations and reports.
type Catalog interface {
	ServicesSnapshot() []models.Service
	CategoriesSnapshot() []models.ServiceCategory
	BookingsSnapshot() []models.Booking
	ServiceByID(id string) (models.Service, bool)
}

// BookingStore is what the booking service needs from the store.
type BookingStore interface {
	Catalog
	BookingByID(id string) (models.Booking, bool)
	UserBookings(userID string) []models.Booking
	AddBooking(b models.Booking) error
	UpdateBookingStatus(id string, status models.BookingStatus) (models.Booking, error)
}

// CatalogStore is the admin side of the service catalog.
type CatalogStore interface {
	Catalog
	AddService(svc models.Service) error
	UpdateService(svc models.Service) error
	SetServiceActive(id string, active bool) error
	DeleteService(id string) error
}

// SessionStore holds the signed-in user.
type SessionStore interface {
	Login(email, password string) bool
	Logout()
	CurrentUser() (models.User, bool)
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type StateRepository interface {
	RateLimiter
	GetDraft(ctx context.Context, userID string) (*models.BookingDraft, error)
	SetDraft(ctx context.Context, draft *models.BookingDraft) error
	ClearDraft(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier delivers operator-facing messages (admin chat).
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus, updatedAt time.Time) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error
}
