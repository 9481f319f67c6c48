// Package ratelimit implements fixed-window request limits keyed by caller.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call. RetryAfter is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
