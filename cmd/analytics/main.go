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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"patientcore/internal/analytics"
	"patientcore/internal/platform/config"
	"patientcore/internal/platform/httpserver"
	"patientcore/internal/platform/kafka/consumer"
	"patientcore/internal/platform/logger"
	"patientcore/internal/platform/otel"
	"patientcore/internal/platform/postgres"
	"patientcore/pkg/platform/httputil"
)

// main consumes the patient topic into the analytics projection and serves
// /stats, /health and /metrics.
func main() {
	if err := run(); err != nil {
		slog.Error("analytics stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.AnalyticsFromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "patient-analytics", cfg.OTelEndpoint)
	if err != nil {
		return err
	}

	var projection analytics.Projection
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 10, 2)
		if err != nil {
			return err
		}
		defer pool.Close()
		pg := analytics.NewPostgresProjection(pool)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		projection = pg
	} else {
		log.Warn("ANALYTICS_DATABASE_URL not set, using in-memory projection")
		projection = analytics.NewMemoryProjection()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	handler := analytics.NewHandler(projection,
		analytics.WithLogger(log),
		analytics.WithMetrics(analytics.NewMetrics(reg)),
	)

	cons, err := consumer.New(consumer.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Group:   cfg.Kafka.Group,
	}, handler, log)
	if err != nil {
		return err
	}
	defer cons.Close()

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	analytics.RegisterStats(r, projection)
	srv := httpserver.New(cfg.MetricsAddr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("consuming patient events", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.Group)
		return consume(gctx, cons)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), shutdownTracing(shutdownCtx))
	})
	return g.Wait()
}

var errConsumerStopped = errors.New("analytics consumer stopped unexpectedly")

type runner interface {
	Run(ctx context.Context) error
}

// consume runs the consumer until ctx ends. A consumer that returns while
// ctx is still live is an error so the errgroup tears the process down.
func consume(ctx context.Context, r runner) error {
	err := r.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	if err == nil || errors.Is(err, context.Canceled) {
		return errConsumerStopped
	}
	return err
}
