package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"patientcore/internal/billing"
	"patientcore/internal/followup"
	"patientcore/internal/patient/metrics"
	"patientcore/internal/patient/service"
	"patientcore/internal/patient/store"
	"patientcore/internal/platform/config"
	"patientcore/internal/platform/kafka/producer"
	"patientcore/internal/platform/postgres"
	"patientcore/internal/platform/redis"
	"patientcore/internal/ratelimit"
	id "patientcore/pkg/domain"
	"patientcore/pkg/platform/circuit"
)

type eventProducer interface {
	Produce(ctx context.Context, rec producer.Record) (producer.Delivery, error)
	Close(ctx context.Context) error
}

type backlogSink interface {
	service.BillingBacklog
	Pending(ctx context.Context) ([]followup.BacklogEntry, error)
	Resolve(ctx context.Context, patientID id.PatientID) error
}

type deadLetterSink interface {
	RecordDeadLetter(ctx context.Context, letter followup.DeadLetter) error
	List(ctx context.Context, limit int) ([]followup.DeadLetter, error)
}

type infra struct {
	store       service.Store
	billing     *billing.Client
	producer    eventProducer
	backlog     backlogSink
	deadLetters deadLetterSink
	rateLimits  ratelimit.Store
	checks      map[string]func(context.Context) error
	closers     []func(context.Context) error
}

// buildInfra picks an adapter per concern: PostgreSQL or memory for the
// store, Kafka or a log-only producer, Redis or memory for follow-up sinks.
func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*infra, error) {
	in := &infra{checks: map[string]func(context.Context) error{}}
	ok := false
	defer func() {
		if !ok {
			in.close(log)
		}
	}()

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func(context.Context) error { return db.Close() })
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		in.store = pg
		in.checks["postgres"] = pingDB(db)
	} else {
		log.Warn("PATIENT_DATABASE_URL not set, using in-memory patient store")
		in.store = store.NewInMemory()
	}

	breaker := circuit.New("billing",
		circuit.WithFailureThreshold(cfg.Billing.BreakerThreshold),
		circuit.WithCooldown(cfg.Billing.BreakerCooldown),
	)
	client, err := billing.Dial(cfg.Billing.Addr,
		billing.WithTimeout(cfg.Billing.Timeout),
		billing.WithBreaker(breaker),
		billing.WithLogger(log),
		billing.WithObserver(m),
	)
	if err != nil {
		return nil, fmt.Errorf("dial billing: %w", err)
	}
	in.billing = client
	in.closers = append(in.closers, func(context.Context) error { return client.Close() })

	if cfg.Kafka.Enabled() {
		prod, err := producer.New(producer.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, log)
		if err != nil {
			return nil, err
		}
		// Closed after the publisher has drained.
		in.closers = append(in.closers, prod.Close)
		in.producer = prod
		if err := prod.EnsureTopic(ctx, cfg.Kafka.Partitions, -1); err != nil {
			return nil, err
		}
		in.checks["kafka"] = prod.Ping
	} else {
		log.Warn("KAFKA_BROKERS not set, patient events are only logged")
		logging := producer.NewLogging(cfg.Kafka.Topic, log)
		in.closers = append(in.closers, logging.Close)
		in.producer = logging
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		in.closers = append(in.closers, func(context.Context) error { return rdb.Close() })
		in.backlog = followup.NewRedisBacklog(rdb.Client)
		in.deadLetters = followup.NewRedisDeadLetters(rdb.Client, cfg.DeadLetterCap)
		in.rateLimits = ratelimit.NewRedisStore(rdb.Client)
		in.checks["redis"] = rdb.Health
	} else {
		in.backlog = followup.NewMemoryBacklog()
		in.deadLetters = followup.NewMemoryDeadLetters(int(cfg.DeadLetterCap))
		in.rateLimits = ratelimit.NewMemoryStore()
	}

	ok = true
	return in, nil
}

// close releases resources in reverse order of acquisition.
func (in *infra) close(log *slog.Logger) {
	ctx := context.Background()
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](ctx); err != nil {
			log.Warn("failed to close resource", "error", err)
		}
	}
	in.closers = nil
}

func pingDB(db *sql.DB) func(context.Context) error {
	return db.PingContext
}
