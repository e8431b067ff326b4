// Package broadcast provides a single-value "last write wins" primitive:
// one writer publishes a value, any number of readers can wait for the next
// change and then read the current value. A value overwritten before a
// reader observes it is correctly lost — this is the watch-style semantics
// the aggregator's egress slot and the publisher's per-client forwarders
// depend on.
package broadcast

import "sync"

// Slot holds the latest published value of T. The zero value is not usable;
// construct with NewSlot.
type Slot[T any] struct {
	mu      sync.RWMutex
	value   T
	changed chan struct{}
}

// NewSlot creates an empty Slot. initial is the value readers observe
// before the first Publish.
func NewSlot[T any](initial T) *Slot[T] {
	return &Slot[T]{
		value:   initial,
		changed: make(chan struct{}),
	}
}

// Publish stores value as the latest and wakes every reader waiting on a
// channel returned by Watch. Publication is never skipped on equal content: callers
// may rely on publish-rate signal, not just content changes.
func (s *Slot[T]) Publish(value T) {
	s.mu.Lock()
	s.value = value
	prev := s.changed
	s.changed = make(chan struct{})
	s.mu.Unlock()
	close(prev)
}

// Watch returns the current value together with a channel that closes the
// next time Publish is called. Callers must not hold any lock across a
// receive on that channel.
func (s *Slot[T]) Watch() (T, <-chan struct{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.changed
}

// Load returns the current value without waiting for a change.
func (s *Slot[T]) Load() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}
