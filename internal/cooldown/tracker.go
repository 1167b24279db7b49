// Package cooldown implements fixed-window, per-key usage limits.
package cooldown

import "time"

type usage struct {
	attempts    int
	windowStart time.Time
}

// Tracker counts attempts per key within fixed windows.
//
// A Tracker is not safe for concurrent use. The bot runs every check from a
// single consumer goroutine; callers that dispatch from several goroutines
// must make each Check atomic per key (a mutex around the tracker is enough).
type Tracker[K comparable] struct {
	policy Policy
	clock  Clock
	usage  map[K]*usage
}

type Option func(*options)

type options struct {
	clock Clock
}

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func NewTracker[K comparable](policy Policy, opts ...Option) *Tracker[K] {
	o := options{clock: SystemClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracker[K]{
		policy: policy,
		clock:  o.clock,
		usage:  make(map[K]*usage),
	}
}

func (t *Tracker[K]) Policy() Policy { return t.policy }

// Check records an attempt for key under the tracker's default policy.
func (t *Tracker[K]) Check(key K) (time.Duration, bool) {
	return t.CheckWith(key, t.policy)
}

// CheckWith records an attempt for key under p. When the key is over its
// limit it returns the time left in the current window and true, and the
// attempt is not counted.
func (t *Tracker[K]) CheckWith(key K, p Policy) (time.Duration, bool) {
	if p.Unlimited() {
		return 0, false
	}

	now := t.clock.Now()
	u, ok := t.usage[key]
	if !ok {
		u = &usage{windowStart: now}
		t.usage[key] = u
	}

	elapsed := now.Sub(u.windowStart)
	if elapsed >= p.Window {
		u.attempts = 1
		u.windowStart = now
		return 0, false
	}
	if u.attempts < p.MaxAttempts {
		u.attempts++
		return 0, false
	}
	return p.Window - elapsed, true
}

// Len reports how many keys have been seen. Entries are never evicted.
func (t *Tracker[K]) Len() int { return len(t.usage) }
