package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "localhost:9001", cfg.Billing.Addr)
	assert.Equal(t, 5*time.Second, cfg.Billing.Timeout)
	assert.Equal(t, 5, cfg.Billing.BreakerThreshold)
	assert.Equal(t, "patient", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 5, cfg.Publish.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Publish.InitialBackoff)
	assert.Equal(t, 8, cfg.Publish.Shards)
	assert.Equal(t, 250*time.Millisecond, cfg.Publish.EnqueueTimeout)
	assert.Empty(t, cfg.Redis.URL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PATIENT_HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BILLING_TIMEOUT", "2s")
	t.Setenv("PUBLISH_SHARDS", "4")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 2*time.Second, cfg.Billing.Timeout)
	assert.Equal(t, 4, cfg.Publish.Shards)
}

func TestFromEnvCapsBillingTimeout(t *testing.T) {
	t.Setenv("BILLING_TIMEOUT", "30s")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, MaxBillingTimeout, cfg.Billing.Timeout)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	t.Run("zero attempts", func(t *testing.T) {
		t.Setenv("PUBLISH_MAX_ATTEMPTS", "0")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("unparsable duration", func(t *testing.T) {
		t.Setenv("PUBLISH_MAX_BACKOFF", "soon")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}

func TestAnalyticsRequiresBrokers(t *testing.T) {
	_, err := AnalyticsFromEnv()
	assert.Error(t, err)

	t.Setenv("KAFKA_BROKERS", "k1:9092")
	cfg, err := AnalyticsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "analytics-service", cfg.Kafka.Group)
}
