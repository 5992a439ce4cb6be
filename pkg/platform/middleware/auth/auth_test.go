package auth

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"patientcore/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	var subject, scope string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = requestcontext.Subject(r.Context())
		scope = requestcontext.Scope(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header", func(t *testing.T) {
		h := RequireAuth(stubValidator{}, logger)(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		h := RequireAuth(stubValidator{err: errors.New("bad signature")}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token sets subject and scope", func(t *testing.T) {
		claims := &JWTClaims{Subject: "clinician-1", Scope: "patients:read patients:write", JTI: "tok-1"}
		h := RequireAuth(stubValidator{claims: claims}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "clinician-1", subject)
		assert.Equal(t, "patients:read patients:write", scope)
	})
}

func TestRequireWriteScope(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireWriteScope("patients:write", logger)(next)

	tests := []struct {
		name   string
		method string
		scope  string
		want   int
	}{
		{name: "read without scope", method: http.MethodGet, scope: "", want: http.StatusNoContent},
		{name: "write with scope", method: http.MethodPost, scope: "patients:read patients:write", want: http.StatusNoContent},
		{name: "write without scope", method: http.MethodPost, scope: "patients:read", want: http.StatusForbidden},
		{name: "delete with empty scope", method: http.MethodDelete, scope: "", want: http.StatusForbidden},
		{name: "scope prefix is not a match", method: http.MethodPatch, scope: "patients:writer", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/patients", nil)
			req = req.WithContext(requestcontext.WithScope(req.Context(), tt.scope))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
