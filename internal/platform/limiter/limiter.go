// Package limiter implements sliding-window request counting, keyed by
// client address and partitioned by route class. The counting algorithm
// is store-agnostic: the default store is in-process, a Redis-backed
// store shares budgets across replicas.
package limiter

import (
	"context"
	"math"
	"time"
)

// Result is the outcome of recording one request against a window budget.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the oldest counted hit leaves the window, i.e. the
	// earliest instant another request could be admitted.
	ResetAt time.Time
	// Member identifies the recorded hit so it can be forgotten later.
	Member string
}

// Store counts hits per key within a trailing window.
type Store interface {
	// Hit records one request under key and reports whether it fits the
	// budget of limit hits per window. A denied request is not recorded.
	Hit(ctx context.Context, key string, window time.Duration, limit int) (Result, error)
	// Forget removes a previously recorded hit, letting callers exclude
	// successful requests from the budget.
	Forget(ctx context.Context, key, member string) error
}

// RetryAfterSeconds converts a window reset time into the integer seconds
// a client must wait: rounded up, never below 1.
func RetryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
