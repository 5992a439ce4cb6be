// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MaxBillingTimeout is the hard ceiling for a billing call.
const MaxBillingTimeout = 5 * time.Second

// Server captures the patient service configuration.
type Server struct {
	Addr          string        `env:"PATIENT_HTTP_ADDR" envDefault:":8080"`
	LogLevel      string        `env:"PATIENT_LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"PATIENT_LOG_FORMAT" envDefault:"json"`
	DatabaseURL   string        `env:"PATIENT_DATABASE_URL"`
	JWTSigningKey string        `env:"PATIENT_JWT_SIGNING_KEY"`
	JWTIssuer     string        `env:"PATIENT_JWT_ISSUER" envDefault:"patientcore"`
	JWTAudience   string        `env:"PATIENT_JWT_AUDIENCE" envDefault:"patient-api"`
	OTelEndpoint  string        `env:"OTEL_ENDPOINT"`
	ShutdownGrace time.Duration `env:"PATIENT_SHUTDOWN_GRACE" envDefault:"15s"`
	AdminToken    string        `env:"PATIENT_ADMIN_TOKEN"`
	DeadLetterCap int64         `env:"PATIENT_DEAD_LETTER_CAPACITY" envDefault:"10000"`

	Billing   Billing
	Kafka     Kafka
	Publish   Publish
	Redis     RedisConfig
	RateLimit RateLimit
}

// RateLimit bounds patient API calls per caller. Zero requests disables it.
type RateLimit struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"120"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

type Billing struct {
	Addr             string        `env:"BILLING_ADDR" envDefault:"localhost:9001"`
	Timeout          time.Duration `env:"BILLING_TIMEOUT" envDefault:"5s"`
	BreakerThreshold int           `env:"BILLING_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"BILLING_BREAKER_COOLDOWN" envDefault:"30s"`
}

type Kafka struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic      string   `env:"KAFKA_TOPIC" envDefault:"patient"`
	Group      string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"analytics-service"`
	Partitions int32    `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"6"`
}

// Enabled reports whether a broker is configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

type Publish struct {
	MaxAttempts    int           `env:"PUBLISH_MAX_ATTEMPTS" envDefault:"5"`
	InitialBackoff time.Duration `env:"PUBLISH_INITIAL_BACKOFF" envDefault:"100ms"`
	MaxBackoff     time.Duration `env:"PUBLISH_MAX_BACKOFF" envDefault:"5s"`
	Shards         int           `env:"PUBLISH_SHARDS" envDefault:"8"`
	QueueSize      int           `env:"PUBLISH_QUEUE_SIZE" envDefault:"256"`
	EnqueueTimeout time.Duration `env:"PUBLISH_ENQUEUE_TIMEOUT" envDefault:"250ms"`
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Analytics captures the analytics consumer configuration.
type Analytics struct {
	LogLevel     string `env:"PATIENT_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"PATIENT_LOG_FORMAT" envDefault:"json"`
	DatabaseURL  string `env:"ANALYTICS_DATABASE_URL"`
	MetricsAddr  string `env:"ANALYTICS_METRICS_ADDR" envDefault:":9102"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	Kafka        Kafka
}

// BillingStub captures the stand-alone billing server configuration.
type BillingStub struct {
	Addr      string        `env:"BILLING_STUB_ADDR" envDefault:":9001"`
	LogLevel  string        `env:"PATIENT_LOG_LEVEL" envDefault:"info"`
	LogFormat string        `env:"PATIENT_LOG_FORMAT" envDefault:"json"`
	Latency   time.Duration `env:"BILLING_STUB_LATENCY"`
}

// FromEnv parses the patient service configuration and applies limits.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Billing.Timeout <= 0 || cfg.Billing.Timeout > MaxBillingTimeout {
		cfg.Billing.Timeout = MaxBillingTimeout
	}
	if cfg.Publish.MaxAttempts < 1 {
		return Server{}, fmt.Errorf("PUBLISH_MAX_ATTEMPTS must be at least 1, got %d", cfg.Publish.MaxAttempts)
	}
	if cfg.Publish.Shards < 1 {
		return Server{}, fmt.Errorf("PUBLISH_SHARDS must be at least 1, got %d", cfg.Publish.Shards)
	}
	return cfg, nil
}

// AnalyticsFromEnv parses the analytics consumer configuration.
func AnalyticsFromEnv() (Analytics, error) {
	var cfg Analytics
	if err := env.Parse(&cfg); err != nil {
		return Analytics{}, fmt.Errorf("parse env: %w", err)
	}
	if !cfg.Kafka.Enabled() {
		return Analytics{}, fmt.Errorf("KAFKA_BROKERS is required")
	}
	return cfg, nil
}

// BillingStubFromEnv parses the billing stub configuration.
func BillingStubFromEnv() (BillingStub, error) {
	var cfg BillingStub
	if err := env.Parse(&cfg); err != nil {
		return BillingStub{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
