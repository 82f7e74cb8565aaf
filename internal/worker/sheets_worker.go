package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homebooking/internal/metrics"
	"homebooking/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert       = "upsert"
	TaskDelete       = "delete"
	TaskUpdateStatus = "update_status"
)

var ErrQueueFull = errors.New("sheets queue is full")

// SheetTask is a unit of work for the Sheets mirror. It is what travels
// through the redis queue and lands in the dead-letter list.
type SheetTask struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	BookingID string               `json:"booking_id"`
	Booking   *models.Booking      `json:"booking,omitempty"`
	Status    models.BookingStatus `json:"status,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
	Attempt   int                  `json:"attempt"`
	LastError string               `json:"last_error,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

type SheetsClient interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID string) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus, updatedAt time.Time) error
}

// SheetsWorker applies booking changes to Google Sheets. Tasks go through
// redis when available and an in-memory channel otherwise.
type SheetsWorker struct {
	sheets        SheetsClient
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan SheetTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	logger        *zerolog.Logger
}

func NewSheetsWorker(sheets SheetsClient, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SheetsWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SheetsWorker{
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan SheetTask, models.WorkerQueueSize),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		logger:        logger,
	}
}

// EnqueueTask schedules a mirror update for booking.
func (w *SheetsWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if booking == nil || booking.ID == "" {
		return errors.New("booking id is required")
	}

	b := *booking
	task := SheetTask{
		ID:        uuid.NewString(),
		Type:      taskType,
		BookingID: b.ID,
		Booking:   &b,
		Status:    b.Status,
		UpdatedAt: b.UpdatedAt,
		CreatedAt: time.Now(),
	}
	return w.enqueue(ctx, task)
}

func (w *SheetsWorker) enqueue(ctx context.Context, task SheetTask) error {
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, task); err != nil {
			w.logger.Warn().Err(err).Msg("sheets_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
		return nil
	default:
		w.logger.Error().Str("booking_id", task.BookingID).Str("task", task.Type).Msg("sheets_worker: in-memory queue full, task dropped")
		metrics.IncSheetsTask(task.Type, "dropped")
		return ErrQueueFull
	}
}

// Start runs the main loop until ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sheets_worker: started")
	defer w.logger.Info().Msg("sheets_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		if w.redis != nil {
			// BRPOP already waited.
			continue
		}

		select {
		case <-ctx.Done():
			return
		case t := <-w.queue:
			w.processTask(ctx, &t)
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *SheetsWorker) tryLocalQueue() (SheetTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return SheetTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (SheetTask, bool) {
	if w.redis == nil {
		return SheetTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return SheetTask{}, false
		}
		w.logger.Error().Err(err).Msg("sheets_worker: redis BRPOP error")
		return SheetTask{}, false
	}
	if len(res) != 2 {
		return SheetTask{}, false
	}
	task, err := decodeTask(res[1])
	if err != nil {
		w.logger.Error().Err(err).Msg("sheets_worker: decode redis task")
		return SheetTask{}, false
	}
	return task, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *SheetTask) {
	if err := w.handleSheetTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}
	metrics.IncSheetsTask(task.Type, "ok")
	w.logger.Debug().Str("booking_id", task.BookingID).Str("task", task.Type).Msg("sheets_worker: task applied")
}

func (w *SheetsWorker) handleSheetTask(ctx context.Context, task *SheetTask) error {
	switch task.Type {
	case TaskUpsert:
		if task.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, task.Booking)
	case TaskDelete:
		if task.BookingID == "" {
			return errors.New("booking id missing")
		}
		return w.sheets.DeleteBookingRow(ctx, task.BookingID)
	case TaskUpdateStatus:
		if task.BookingID == "" || task.Status == "" {
			return errors.New("booking id or status missing")
		}
		return w.sheets.UpdateBookingStatus(ctx, task.BookingID, task.Status, task.UpdatedAt)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *SheetTask, cause error) {
	task.Attempt++
	task.LastError = cause.Error()

	if w.retryPolicy.Exhausted(task.Attempt) {
		w.logger.Error().Err(cause).Str("booking_id", task.BookingID).Int("attempt", task.Attempt).Msg("sheets_worker: task failed")
		metrics.IncSheetsTask(task.Type, "failed")
		w.pushDeadLetter(ctx, task)
		return
	}

	delay := w.retryPolicy.NextDelay(task.Attempt)
	w.logger.Warn().Err(cause).Str("booking_id", task.BookingID).Dur("retry_in", delay).Msg("sheets_worker: task retry scheduled")
	metrics.IncSheetsTask(task.Type, "retry")

	retry := *task
	time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		_ = w.enqueue(ctx, retry)
	})
}

func decodeTask(raw string) (SheetTask, error) {
	var task SheetTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return task, err
	}
	return task, nil
}

func (w *SheetsWorker) pushRedis(ctx context.Context, key string, task SheetTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func (w *SheetsWorker) pushDeadLetter(ctx context.Context, task *SheetTask) {
	if w.redis == nil {
		return
	}
	if err := w.pushRedis(ctx, w.deadLetterKey, *task); err != nil {
		w.logger.Error().Err(err).Str("booking_id", task.BookingID).Msg("sheets_worker: deadletter push")
	}
}

// DeadLetters lists tasks that ran out of retries, newest first.
func (w *SheetsWorker) DeadLetters(ctx context.Context) ([]SheetTask, error) {
	if w.redis == nil {
		return nil, nil
	}
	raw, err := w.redis.LRange(ctx, w.deadLetterKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]SheetTask, 0, len(raw))
	for _, r := range raw {
		task, err := decodeTask(r)
		if err != nil {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}
