package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process sliding windows. It does not
// share state between replicas; use RedisStore for that.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	swept   time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string][]time.Time), now: time.Now}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)
	if now.Sub(s.swept) >= window {
		s.sweep(cutoff)
		s.swept = now
	}
	timestamps := prune(s.buckets[key], cutoff)

	if len(timestamps) >= limit {
		s.buckets[key] = timestamps
		resetAt := timestamps[0].Add(window)
		return &Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}

	timestamps = append(timestamps, now)
	s.buckets[key] = timestamps
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(timestamps),
		ResetAt:   timestamps[0].Add(window),
	}, nil
}

// sweep deletes keys with no timestamp after cutoff, so clients that stop
// calling do not stay in the map. Runs at most once per window.
func (s *MemoryStore) sweep(cutoff time.Time) {
	for key, timestamps := range s.buckets {
		if len(timestamps) == 0 || !timestamps[len(timestamps)-1].After(cutoff) {
			delete(s.buckets, key)
		}
	}
}

// prune drops timestamps at or before cutoff. Timestamps are ascending.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(timestamps); i++ {
		if timestamps[i].After(cutoff) {
			break
		}
	}
	return timestamps[i:]
}
