package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"patientcore/pkg/platform/httputil"
	"patientcore/pkg/requestcontext"
)

type Middleware struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New returns a limiter allowing limit requests per window and caller.
func New(store Store, limit int, window time.Duration, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Middleware{store: store, limit: limit, window: window, logger: logger}
}

// RateLimit keys on the authenticated subject, falling back to client IP.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ip:" + requestcontext.ClientIP(ctx)
		if subject := requestcontext.Subject(ctx); subject != "" {
			key = "sub:" + subject
		}

		result, err := m.store.Allow(ctx, key, m.limit, m.window)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"key", key,
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, &ExceededResponse{
				Error:      "rate_limit_exceeded",
				Message:    "Too many requests. Please try again later.",
				RetryAfter: result.RetryAfter,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
