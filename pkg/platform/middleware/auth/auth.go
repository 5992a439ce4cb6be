package auth

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "patientcore/pkg/domain-errors"
	"patientcore/pkg/platform/httputil"
	"patientcore/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Subject string
	Scope   string
	JTI     string
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject and scope in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithSubject(ctx, claims.Subject)
			ctx = requestcontext.WithScope(ctx, claims.Scope)
			logger.DebugContext(ctx, "request authenticated",
				"subject", claims.Subject,
				"token_id", claims.JTI,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireWriteScope rejects mutating requests (anything but GET, HEAD and
// OPTIONS) whose token scope lacks scope. It must run after RequireAuth.
func RequireWriteScope(scope string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if !hasScope(requestcontext.Scope(ctx), scope) {
				logger.WarnContext(ctx, "forbidden - missing scope",
					"subject", requestcontext.Subject(ctx),
					"required_scope", scope,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token lacks scope "+scope))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasScope(granted, want string) bool {
	for _, s := range strings.Fields(granted) {
		if s == want {
			return true
		}
	}
	return false
}
