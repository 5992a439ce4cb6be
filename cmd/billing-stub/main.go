package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"patientcore/internal/billing/stub"
	"patientcore/internal/platform/config"
	"patientcore/internal/platform/logger"
)

// main runs the in-memory billing service used for local runs and e2e.
func main() {
	cfg, err := config.BillingStubFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error("listen failed", "addr", cfg.Addr, "error", err)
		os.Exit(1)
	}

	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	stub.New(stub.WithLogger(log), stub.WithLatency(cfg.Latency)).Register(srv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("stopping billing stub")
		srv.GracefulStop()
	}()

	log.Info("starting billing stub", "addr", cfg.Addr, "latency", cfg.Latency.String())
	if err := srv.Serve(lis); err != nil {
		log.Error("billing stub stopped", "error", err)
		os.Exit(1)
	}
}
