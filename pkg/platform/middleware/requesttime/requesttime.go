// Package requesttime captures one "now" per HTTP request so the
// registration date, log lines and emitted events of a request agree.
package requesttime

import (
	"net/http"
	"time"

	"patientcore/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
