package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patientcore/internal/admin"
	jwttoken "patientcore/internal/jwt_token"
	"patientcore/internal/patient/handler"
	"patientcore/internal/platform/config"
	platformmetrics "patientcore/internal/platform/metrics"
	"patientcore/internal/platform/middleware"
	"patientcore/internal/ratelimit"
	"patientcore/pkg/platform/httputil"
	"patientcore/pkg/platform/middleware/auth"
	"patientcore/pkg/platform/middleware/metadata"
	"patientcore/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout = 30 * time.Second
	readyTimeout   = 2 * time.Second

	// writeScope is required on mutating patient routes when auth is on.
	writeScope = "patients:write"
)

type routerDeps struct {
	cfg         config.Server
	logger      *slog.Logger
	registry    *prometheus.Registry
	httpMetrics *platformmetrics.HTTP
	service     handler.Service
	backlog     admin.Backlog
	deadLetters admin.DeadLetters
	rateLimits  ratelimit.Store
	checks      map[string]func(context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(d.logger))
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Latency(d.httpMetrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", readiness(d.checks))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		if d.cfg.JWTSigningKey != "" {
			validator := jwttoken.NewJWTServiceAdapter(
				jwttoken.NewJWTService(d.cfg.JWTSigningKey, d.cfg.JWTIssuer, d.cfg.JWTAudience),
			)
			r.Use(auth.RequireAuth(validator, d.logger))
			r.Use(auth.RequireWriteScope(writeScope, d.logger))
		} else {
			d.logger.Warn("PATIENT_JWT_SIGNING_KEY not set, patient API is unauthenticated")
		}
		if d.cfg.RateLimit.Requests > 0 && d.rateLimits != nil {
			r.Use(ratelimit.New(d.rateLimits, d.cfg.RateLimit.Requests, d.cfg.RateLimit.Window, d.logger).RateLimit)
		}
		handler.New(d.service, d.logger).Register(r)
	})

	if d.cfg.AdminToken != "" {
		admin.New(d.backlog, d.deadLetters, d.cfg.AdminToken, d.logger).Register(r)
	}
	return r
}

// readiness runs every dependency check and answers 503 if any fails.
func readiness(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"checks": results})
	}
}
