// Package ratelimit caps how many patient API calls one caller can make in a
// sliding window. The limiter fails open: a broken store never blocks traffic.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
}

// Store counts requests per key over a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ExceededResponse is the API response when the limit is exceeded.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	return max(secs, 1)
}
