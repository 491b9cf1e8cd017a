// Package events carries storage change notifications between the parts of
// the application that share one store.
package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscription channel capacity
const DefaultBuffer = 64

// Event announces that the value stored under Key changed. Value is nil
// when the key was deleted.
type Event struct {
	Key   string
	Value []byte
}

// Subscription receives events for a set of keys
type Subscription struct {
	C <-chan Event

	ch      chan Event
	keys    map[string]struct{}
	b       *Broadcaster
	dropped atomic.Int64
	once    sync.Once
}

// Wants reports whether the subscription listens to key
func (s *Subscription) Wants(key string) bool {
	if len(s.keys) == 0 {
		return true
	}
	_, ok := s.keys[key]
	return ok
}

// Dropped returns how many events were discarded because the buffer was full
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.remove(s)
	})
}

// Broadcaster fans events out to subscriptions. Publish never blocks:
// a subscriber that falls behind loses events rather than stalling writers.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster whose subscriptions buffer up to
// buffer events. A non-positive buffer uses DefaultBuffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers interest in keys. With no keys every event is delivered.
func (b *Broadcaster) Subscribe(keys ...string) *Subscription {
	ch := make(chan Event, b.buffer)
	sub := &Subscription{
		C:    ch,
		ch:   ch,
		keys: make(map[string]struct{}, len(keys)),
		b:    b,
	}
	for _, k := range keys {
		sub.keys[k] = struct{}{}
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Publish delivers e to every interested subscription without blocking
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		if !sub.Wants(e.Key) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Len returns the number of live subscriptions
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Listen calls fn for each event on sub until ctx is done or the
// subscription is closed
func Listen(ctx context.Context, sub *Subscription, fn func(context.Context, Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			fn(ctx, e)
		}
	}
}
