package sshd

import (
	"sync"
	"time"
)

// throttle gates progress emission to a minimum interval so a fast copy
// loop does not flood the event feed.
type throttle struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval}
}

// ready reports whether enough time has passed since the last permitted
// emission, and if so claims the next slot. A zero interval always permits.
func (t *throttle) ready() bool {
	if t == nil || t.interval <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if now.Before(t.next) {
		return false
	}
	t.next = now.Add(t.interval)
	return true
}
