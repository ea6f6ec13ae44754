// Package ratelimit implements a fixed-window request counter keyed by caller
// identity. Counters live in a sharded map so unrelated identifiers never
// contend on the same lock; expired windows are purged lazily from the shard
// touched by each call.
package ratelimit

import (
	"math"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/pkg/syncx"
)

const (
	DefaultWindow      = 15 * time.Minute
	DefaultMaxRequests = 100
)

type Config struct {
	Window      time.Duration
	MaxRequests int
}

// FixedWindow is safe for concurrent use.
type FixedWindow struct {
	window time.Duration
	max    int

	entries *syncx.ShardedMap[domain.RateLimitEntry]
}

// New returns a limiter for cfg, substituting defaults for zero values.
func New(cfg Config) *FixedWindow {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	return &FixedWindow{
		window:  cfg.Window,
		max:     cfg.MaxRequests,
		entries: syncx.NewShardedMap[domain.RateLimitEntry](),
	}
}

func (l *FixedWindow) Limit() int            { return l.max }
func (l *FixedWindow) Window() time.Duration { return l.window }

// Allow checks and consumes one request for id at now. A rejected request
// does not advance the counter.
func (l *FixedWindow) Allow(id string, now time.Time) domain.RateLimitResult {
	var res domain.RateLimitResult

	l.entries.WithShard(id, func(m map[string]domain.RateLimitEntry) {
		for k, e := range m {
			if !now.Before(e.ResetAt) {
				delete(m, k)
			}
		}

		e, ok := m[id]
		if !ok {
			e = domain.RateLimitEntry{Identifier: id, ResetAt: now.Add(l.window)}
		}

		if e.Count >= l.max {
			res = domain.RateLimitResult{
				Allowed:    false,
				Limit:      l.max,
				Remaining:  0,
				ResetAt:    e.ResetAt,
				RetryAfter: retryAfter(e.ResetAt, now),
			}
			return
		}

		e.Count++
		m[id] = e
		res = domain.RateLimitResult{
			Allowed:   true,
			Limit:     l.max,
			Remaining: l.max - e.Count,
			ResetAt:   e.ResetAt,
		}
	})

	return res
}

// Peek returns the live entry for id without consuming.
func (l *FixedWindow) Peek(id string, now time.Time) (domain.RateLimitEntry, bool) {
	e, ok := l.entries.Load(id)
	if !ok || !now.Before(e.ResetAt) {
		return domain.RateLimitEntry{}, false
	}
	return e, true
}

// Reset forgets the counter for id.
func (l *FixedWindow) Reset(id string) {
	l.entries.Delete(id)
}

// Sweep drops every expired window and returns how many were removed.
func (l *FixedWindow) Sweep(now time.Time) int {
	return l.entries.DeleteFunc(func(_ string, e domain.RateLimitEntry) bool {
		return !now.Before(e.ResetAt)
	})
}

// Len is the number of tracked identifiers, including not yet purged ones.
func (l *FixedWindow) Len() int {
	return l.entries.Len()
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
