package realtime

import (
	"context"
	"iter"
	"sync"
)

// Loader runs the standing query and returns the full result set.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Subscription delivers full snapshots: the current one first, then a fresh
// one after every publish on its topic. Consumers replace, never merge.
type Subscription[T any] struct {
	events chan []T
	cancel context.CancelFunc
	once   sync.Once

	mu  sync.Mutex
	err error
}

// Subscribe starts the standing query. The watch is registered before the
// first load so no write between the two is missed.
func Subscribe[T any](ctx context.Context, broker *Broker, topic Topic, load Loader[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		events: make(chan []T),
		cancel: cancel,
	}

	id, notify := broker.watch(topic)
	go func() {
		defer close(s.events)
		defer broker.unwatch(topic, id)

		if !s.push(ctx, load) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
				if !s.push(ctx, load) {
					return
				}
			}
		}
	}()
	return s
}

func (s *Subscription[T]) push(ctx context.Context, load Loader[T]) bool {
	snapshot, err := load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.setErr(err)
		}
		return false
	}
	select {
	case s.events <- snapshot:
		return true
	case <-ctx.Done():
		return false
	}
}

// Events is closed after Cancel or a failed load.
func (s *Subscription[T]) Events() <-chan []T {
	return s.events
}

// All yields snapshots lazily until the subscription ends. Breaking out of
// the loop cancels the subscription.
func (s *Subscription[T]) All() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for snapshot := range s.events {
			if !yield(snapshot) {
				s.Cancel()
				return
			}
		}
	}
}

// Cancel is idempotent.
func (s *Subscription[T]) Cancel() {
	s.once.Do(s.cancel)
}

// Err reports the load error that ended the subscription, if any.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription[T]) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
