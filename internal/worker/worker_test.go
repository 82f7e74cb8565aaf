package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homebooking/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking(id string) *models.Booking {
	now := time.Now()
	return &models.Booking{
		ID:           id,
		UserID:       "user-1",
		ServiceID:    "service-1",
		Date:         "2024-02-01",
		TimeSlot:     "10:00 AM",
		Status:       models.StatusPending,
		CustomerName: "tester",
		TotalAmount:  150,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestProcessTaskSuccess(t *testing.T) {
	sheets := &fakeSheets{}
	worker := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := worker.EnqueueTask(ctx, TaskUpsert, testBooking("booking-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	if sheets.calls("upsert") != 1 {
		t.Fatalf("expected upsert call, got %d", sheets.calls("upsert"))
	}
	if task.Attempt != 0 {
		t.Fatalf("expected attempt=0, got %d", task.Attempt)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("boom")}
	worker := NewSheetsWorker(sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: 10 * time.Millisecond}, nil)

	ctx := context.Background()
	require.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, testBooking("booking-2")))

	task, ok := worker.tryLocalQueue()
	require.True(t, ok)
	worker.processTask(ctx, &task)

	var retried SheetTask
	require.Eventually(t, func() bool {
		var ok bool
		retried, ok = worker.tryLocalQueue()
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, retried.Attempt)
	assert.Equal(t, "boom", retried.LastError)
	assert.Equal(t, "booking-2", retried.BookingID)
}

func TestProcessTaskFailGoesToDeadLetter(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	sheets := &fakeSheets{err: errors.New("fatal")}
	worker := NewSheetsWorker(sheets, client, RetryPolicy{MaxRetries: 1}, nil)

	ctx := context.Background()
	task := SheetTask{ID: "t1", Type: TaskUpdateStatus, BookingID: "booking-3", Status: models.StatusConfirmed}
	worker.processTask(ctx, &task)

	dead, err := worker.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "booking-3", dead[0].BookingID)
	assert.Equal(t, 1, dead[0].Attempt)
	assert.Equal(t, "fatal", dead[0].LastError)
}

func TestSheetsWorker_HandleSheetTask(t *testing.T) {
	sheets := &fakeSheets{}
	worker := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		task    SheetTask
		wantErr bool
	}{
		{"upsert", SheetTask{Type: TaskUpsert, Booking: testBooking("b1")}, false},
		{"upsert without booking", SheetTask{Type: TaskUpsert}, true},
		{"delete", SheetTask{Type: TaskDelete, BookingID: "b1"}, false},
		{"delete without id", SheetTask{Type: TaskDelete}, true},
		{"status", SheetTask{Type: TaskUpdateStatus, BookingID: "b1", Status: models.StatusCompleted}, false},
		{"status without status", SheetTask{Type: TaskUpdateStatus, BookingID: "b1"}, true},
		{"unknown", SheetTask{Type: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := worker.handleSheetTask(ctx, &tt.task)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Equal(t, 1, sheets.calls("upsert"))
	assert.Equal(t, 1, sheets.calls("delete"))
	assert.Equal(t, 1, sheets.calls("status"))
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 5*time.Second, policy.NextDelay(5), "capped at MaxDelay")
	assert.Equal(t, 5*time.Second, policy.NextDelay(500), "huge attempts stay capped")
	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(0))
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2}.withDefaults()
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, DefaultRetryPolicy().InitialDelay, p.InitialDelay)
	assert.Equal(t, DefaultRetryPolicy().MaxDelay, p.MaxDelay)

	assert.False(t, p.Exhausted(1))
	assert.True(t, p.Exhausted(2))
}

func TestSheetsWorker_EnqueueTask(t *testing.T) {
	worker := NewSheetsWorker(&fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	t.Run("ValidTask", func(t *testing.T) {
		booking := testBooking("booking-5")
		require.NoError(t, worker.EnqueueTask(ctx, TaskUpdateStatus, booking))

		task, ok := worker.tryLocalQueue()
		require.True(t, ok)
		assert.Equal(t, TaskUpdateStatus, task.Type)
		assert.Equal(t, models.StatusPending, task.Status)
		assert.NotEmpty(t, task.ID)

		// the queued booking is a copy
		booking.Status = models.StatusCancelled
		assert.Equal(t, models.StatusPending, task.Booking.Status)
	})

	t.Run("MissingType", func(t *testing.T) {
		assert.Error(t, worker.EnqueueTask(ctx, "", testBooking("b")))
	})

	t.Run("MissingBooking", func(t *testing.T) {
		assert.Error(t, worker.EnqueueTask(ctx, TaskUpsert, nil))
		assert.Error(t, worker.EnqueueTask(ctx, TaskUpsert, &models.Booking{}))
	})

	t.Run("QueueFull", func(t *testing.T) {
		w := NewSheetsWorker(&fakeSheets{}, nil, RetryPolicy{}, nil)
		w.queue = make(chan SheetTask, 1)
		require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, testBooking("b1")))
		assert.ErrorIs(t, w.EnqueueTask(ctx, TaskUpsert, testBooking("b2")), ErrQueueFull)
	})
}

func TestSheetsWorker_RedisQueue(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	sheets := &fakeSheets{}
	worker := NewSheetsWorker(sheets, client, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, testBooking("booking-6")))
	n, err := client.LLen(ctx, "sheets:queue").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	task, ok := worker.tryRedis(ctx)
	require.True(t, ok)
	assert.Equal(t, "booking-6", task.BookingID)
	require.NotNil(t, task.Booking)
	assert.Equal(t, "service-1", task.Booking.ServiceID)
}

func TestSheetsWorker_StartStop(t *testing.T) {
	sheets := &fakeSheets{}
	worker := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)
	worker.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	require.NoError(t, worker.EnqueueTask(ctx, TaskUpsert, testBooking("booking-7")))
	assert.Eventually(t, func() bool { return sheets.calls("upsert") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestDecodeTask(t *testing.T) {
	task, err := decodeTask(`{"id":"x","type":"upsert","booking_id":"b1","attempt":2}`)
	require.NoError(t, err)
	assert.Equal(t, "b1", task.BookingID)
	assert.Equal(t, 2, task.Attempt)

	_, err = decodeTask("{")
	assert.Error(t, err)
}

type fakeSheets struct {
	mu     sync.Mutex
	err    error
	counts map[string]int
}

func (f *fakeSheets) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[op]++
	return f.err
}

func (f *fakeSheets) calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[op]
}

func (f *fakeSheets) UpsertBooking(ctx context.Context, b *models.Booking) error {
	return f.record("upsert")
}

func (f *fakeSheets) DeleteBookingRow(ctx context.Context, id string) error {
	return f.record("delete")
}

func (f *fakeSheets) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error {
	return f.record("status")
}
