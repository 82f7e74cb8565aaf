package store

import (
	"context"
	"sync"
)

// Subject holds the latest snapshot of a collection and fans it out to
// subscribers. Every subscriber gets the current snapshot on Subscribe and
// then every published one. A subscriber that falls behind only ever sees
// the newest pending snapshot.
type Subject[T any] struct {
	mu     sync.Mutex
	value  []T
	clone  func(T) T
	subs   map[uint64]chan []T
	nextID uint64
	closed bool
	done   chan struct{}

	// onChange is told about subscriber count changes, used for metrics.
	onChange func(delta int)
}

// NewSubject builds a subject seeded with initial. clone deep-copies one
// element; nil means elements are plain values.
func NewSubject[T any](initial []T, clone func(T) T) *Subject[T] {
	s := &Subject[T]{
		clone: clone,
		subs:  make(map[uint64]chan []T),
		done:  make(chan struct{}),
	}
	s.value = s.copy(initial)
	return s
}

func (s *Subject[T]) copy(in []T) []T {
	out := make([]T, len(in))
	if s.clone == nil {
		copy(out, in)
		return out
	}
	for i := range in {
		out[i] = s.clone(in[i])
	}
	return out
}

// Value returns a copy of the current snapshot.
func (s *Subject[T]) Value() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copy(s.value)
}

// Publish replaces the snapshot and notifies every subscriber.
func (s *Subject[T]) Publish(next []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.value = s.copy(next)
	for _, ch := range s.subs {
		offerLatest(ch, s.copy(s.value))
	}
}

// Subscribe returns a stream of snapshots that is closed when ctx ends or the
// subject is closed.
func (s *Subject[T]) Subscribe(ctx context.Context) <-chan []T {
	ch := make(chan []T, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.copy(s.value)
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(1)
	}

	go func() {
		select {
		case <-ctx.Done():
			s.unsubscribe(id)
		case <-s.done:
		}
	}()

	return ch
}

func (s *Subject[T]) unsubscribe(id uint64) {
	s.mu.Lock()
	ch, ok := s.subs[id]
	if ok {
		delete(s.subs, id)
		close(ch)
	}
	onChange := s.onChange
	s.mu.Unlock()

	if ok && onChange != nil {
		onChange(-1)
	}
}

// Subscribers returns the number of open subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends every subscription. Later publishes are dropped.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	n := len(s.subs)
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil && n > 0 {
		onChange(-n)
	}
}

// offerLatest puts v into a one-slot channel, replacing a value the reader
// has not taken yet. Only the holder of the subject lock sends, so the
// second send cannot block.
func offerLatest[T any](ch chan []T, v []T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}

// relay maps every snapshot from in through fn with the same latest-wins
// delivery. The returned channel closes when in does.
func relay[T any](in <-chan []T, fn func([]T) []T) <-chan []T {
	out := make(chan []T, 1)
	go func() {
		defer close(out)
		for snap := range in {
			offerLatest(out, fn(snap))
		}
	}()
	return out
}
