package backend

import "sync"

const feedBuffer = 64

// Feed is a typed broadcast channel for one push capability. Publish fans an
// event out to every live subscription without blocking; a subscriber that
// stops draining its channel loses events rather than stalling the producer.
type Feed[T any] struct {
	mu   sync.Mutex
	subs map[*Subscription[T]]struct{}
}

// Subscription is a handle on a feed. C delivers events until Close is
// called; Close is idempotent and must run on teardown so the feed does not
// leak channels across view lifetimes.
type Subscription[T any] struct {
	C    <-chan T
	feed *Feed[T]
	ch   chan T
	once sync.Once
}

// NewFeed constructs an empty feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a new subscription.
func (f *Feed[T]) Subscribe() *Subscription[T] {
	ch := make(chan T, feedBuffer)
	sub := &Subscription[T]{C: ch, feed: f, ch: ch}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// Publish delivers the event to all subscribers. Slow consumers drop.
func (f *Feed[T]) Publish(event T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Close detaches the subscription from the feed and closes its channel.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.ch)
	})
}
