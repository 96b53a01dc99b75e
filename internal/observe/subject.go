// Package observe provides a replay-latest broadcast value.
package observe

import (
	"context"
	"sync"
)

// Subject holds a current value and broadcasts every new value to its
// subscribers. A new subscriber immediately receives the current value.
//
// Each subscriber owns a single buffered slot. When a subscriber falls behind,
// the pending value is replaced by the newer one, so publishing never blocks
// and a reader always observes the latest state.
type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[chan T]struct{}
	done   chan struct{}
	closed bool
}

func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{
		value: initial,
		subs:  make(map[chan T]struct{}),
		done:  make(chan struct{}),
	}
}

// Value returns the current value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish stores v and offers it to every subscriber.
// Publishing on a closed subject is a no-op.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(v)
}

// Update replaces the current value with fn(current) atomically and
// publishes the result.
func (s *Subject[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.value)
	s.publishLocked(next)
	return next
}

func (s *Subject[T]) publishLocked(v T) {
	if s.closed {
		return
	}
	s.value = v
	for ch := range s.subs {
		offer(ch, v)
	}
}

// offer does a non-blocking send, evicting a stale pending value first.
// Callers hold s.mu, so this goroutine is the only sender on ch.
func offer[T any](ch chan T, v T) {
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

// Subscribe returns a channel that first yields the current value and then
// every subsequent one. The channel is closed when ctx is cancelled or the
// subject is closed.
func (s *Subject[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	ch <- s.value
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.unsubscribe(ch)
		case <-s.done:
		}
	}()
	return ch
}

func (s *Subject[T]) unsubscribe(ch chan T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

// Subscribers reports how many live subscriptions exist.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends every subscription. The last value stays readable via Value.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}
