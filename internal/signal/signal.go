// Package signal is a minimal synchronous publish/subscribe bus.
package signal

import "sync"

// Subscription identifies one subscriber. Funcs are not comparable in Go, so
// Unsubscribe takes this handle instead of the handler itself.
type Subscription uint64

type subscriber[T any] struct {
	id Subscription
	fn func(T)
}

// Signal fans a value out to its subscribers, in subscription order.
// The zero value is ready to use.
type Signal[T any] struct {
	mu     sync.Mutex
	nextID Subscription
	subs   []subscriber[T]
}

func New[T any]() *Signal[T] {
	return &Signal[T]{}
}

// Subscribe registers fn and returns its handle.
func (s *Signal[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		panic("signal: nil subscriber")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.subs = append(s.subs, subscriber[T]{id: s.nextID, fn: fn})
	return s.nextID
}

// Unsubscribe removes the subscriber. Unknown handles are ignored.
func (s *Signal[T]) Unsubscribe(id Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.subs[:0:0]
	for _, sub := range s.subs {
		if sub.id != id {
			out = append(out, sub)
		}
	}
	s.subs = out
}

// Emit calls every current subscriber synchronously. The subscriber list is
// snapshotted first: subscriptions made from inside a handler take effect on
// the next Emit.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Len reports the number of subscribers.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Clear removes all subscribers.
func (s *Signal[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = nil
}
