// Package notify implements typed publish/subscribe topics.
//
// Handlers run synchronously on the publishing goroutine in subscription order
// and must not block.
package notify

import "sync"

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// Topic broadcasts values of type T to its subscribers.
// The zero value is ready to use.
type Topic[T any] struct {
	mu   sync.Mutex
	next uint64
	subs []subscription[T]
}

// Subscribe registers fn and returns a function that removes exactly this
// subscription. Calling the returned function more than once is a no-op.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	t.next++
	id := t.next
	t.subs = append(t.subs, subscription[T]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(id) })
	}
}

func (t *Topic[T]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s.id == id {
			t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every current subscriber. Subscriptions added or removed
// by a handler take effect on the next Publish.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	subs := make([]subscription[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()
	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Clear removes every subscriber.
func (t *Topic[T]) Clear() {
	t.mu.Lock()
	t.subs = nil
	t.mu.Unlock()
}
