// Package feed provides subscription handles for value streams such as the
// current user and live flight queries.
//
// A Hub delivers values to callbacks. Subscribing returns a handle whose
// Unsubscribe is idempotent. Unsubscribe waits for a callback that is
// already running, so once it returns the callback is not running and never
// runs again. Calls to one subscriber's callback never overlap, so a
// callback must not unsubscribe itself or publish to its own hub; hand
// either off to another goroutine.
package feed

import "sync"

// Subscription is a handle on one subscriber.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe detaches the subscriber. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// NewSubscription wraps a cancel function in a handle.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// subscriber holds mu across the stopped check and the callback, so stop
// cannot return while a call is in progress.
type subscriber[T any] struct {
	fn      func(T)
	mu      sync.Mutex
	stopped bool
}

func (s *subscriber[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.fn(v)
	}
}

func (s *subscriber[T]) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Hub fans values out to subscribers. When replay is on, a new subscriber
// immediately receives the last published value.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber[T]
	nextID uint64
	last   T
	has    bool
	replay bool
	closed bool
}

// NewHub returns an empty hub.
func NewHub[T any](replay bool) *Hub[T] {
	return &Hub[T]{subs: make(map[uint64]*subscriber[T]), replay: replay}
}

// Subscribe registers fn. With replay, fn is called with the current value
// before Subscribe returns.
func (h *Hub[T]) Subscribe(fn func(T)) *Subscription {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return NewSubscription(func() {})
	}
	id := h.nextID
	h.nextID++
	sub := &subscriber[T]{fn: fn}
	h.subs[id] = sub
	last, has := h.last, h.has && h.replay
	if has {
		// Held before h.mu is released, so a concurrent Publish of a newer
		// value waits for the replay.
		sub.mu.Lock()
	}
	h.mu.Unlock()

	if has {
		fn(last)
		sub.mu.Unlock()
	}

	return NewSubscription(func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		sub.stop()
	})
}

// Publish delivers v to every subscriber synchronously. Delivery order
// between subscribers is unspecified.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last, h.has = v, true
	subs := make([]*subscriber[T], 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.deliver(v)
	}
}

// Last returns the most recently published value.
func (h *Hub[T]) Last() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.has
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches every subscriber. Later publishes are dropped.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*subscriber[T])
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}
