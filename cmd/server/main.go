package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"patientcore/internal/events/publisher"
	"patientcore/internal/patient/metrics"
	"patientcore/internal/patient/service"
	"patientcore/internal/platform/config"
	"patientcore/internal/platform/httpserver"
	"patientcore/internal/platform/logger"
	platformmetrics "patientcore/internal/platform/metrics"
	"patientcore/internal/platform/otel"
)

// main wires high-level dependencies, exposes the HTTP router and owns the
// shutdown order. Business logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		slog.Error("patient service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "patient-service", cfg.OTelEndpoint)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	patientMetrics := metrics.New(reg)

	deps, err := buildInfra(ctx, cfg, log, patientMetrics)
	if err != nil {
		return err
	}
	defer deps.close(log)

	pub := publisher.New(deps.producer,
		publisher.WithConfig(publisher.Config{
			Shards:         cfg.Publish.Shards,
			QueueSize:      cfg.Publish.QueueSize,
			MaxAttempts:    cfg.Publish.MaxAttempts,
			InitialBackoff: cfg.Publish.InitialBackoff,
			MaxBackoff:     cfg.Publish.MaxBackoff,
			EnqueueTimeout: cfg.Publish.EnqueueTimeout,
		}),
		publisher.WithDeadLetters(deps.deadLetters),
		publisher.WithObserver(patientMetrics),
		publisher.WithLogger(log),
	)

	svc, err := service.New(deps.store, deps.billing, pub,
		service.WithLogger(log),
		service.WithMetrics(patientMetrics),
		service.WithBillingBacklog(deps.backlog),
	)
	if err != nil {
		return err
	}

	router := newRouter(routerDeps{
		cfg:         cfg,
		logger:      log,
		registry:    reg,
		httpMetrics: platformmetrics.NewHTTP(reg),
		service:     svc,
		backlog:     deps.backlog,
		deadLetters: deps.deadLetters,
		rateLimits:  deps.rateLimits,
		checks:      deps.checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting patient service", "addr", cfg.Addr, "kafka", cfg.Kafka.Enabled(), "postgres", cfg.DatabaseURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "grace", cfg.ShutdownGrace.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()

		// HTTP first so no new events are accepted, then drain the publisher.
		errs := []error{srv.Shutdown(shutdownCtx)}
		start := time.Now()
		if err := pub.Close(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		log.Info("publisher drained", "duration_ms", time.Since(start).Milliseconds())
		errs = append(errs, shutdownTracing(shutdownCtx))
		return errors.Join(errs...)
	})
	return g.Wait()
}
