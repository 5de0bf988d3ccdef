// Package hub broadcasts the latest value of some state to any number of
// subscribers.
//
// A subscriber receives the current value right after subscribing and then
// every later value. A slow subscriber never blocks Publish: its pending value
// is replaced by the newer one, so it always ends up with the latest state
// but may skip intermediate ones.
package hub

import (
	"sync"
)

// Hub is a replay-latest broadcaster. The zero value is not usable; use New.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	latest T
	has    bool
	closed bool
}

// Subscription is one consumer of a Hub.
type Subscription[T any] struct {
	hub  *Hub[T]
	ch   chan T
	once sync.Once
}

// New returns an empty hub. Subscribers receive nothing until the first
// Publish.
func New[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Publish stores v as the latest value and delivers it to every subscriber.
// Publishing on a closed hub is a no-op.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.latest = v
	h.has = true

	for s := range h.subs {
		s.offer(v)
	}
}

// Latest returns the most recently published value.
func (h *Hub[T]) Latest() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.has
}

// Subscribe registers a new subscriber. On a closed hub the returned
// subscription's channel is already closed.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{hub: h, ch: make(chan T, 1)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	if h.has {
		s.ch <- h.latest
	}
	h.subs[s] = struct{}{}
	return s
}

// Len reports the number of active subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later Subscribe calls get a closed
// channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		s.once.Do(func() { close(s.ch) })
	}
}

// C returns the channel values are delivered on. It is closed when the
// subscription or the hub is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription[T]) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	delete(s.hub.subs, s)
	s.once.Do(func() { close(s.ch) })
}

// offer replaces any undelivered value with v. Called with hub.mu held, so
// there is exactly one sender and the send below never blocks.
func (s *Subscription[T]) offer(v T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}
