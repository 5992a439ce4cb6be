//go:build integration

package producer_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientcore/internal/platform/kafka/consumer"
	"patientcore/internal/platform/kafka/producer"
	"patientcore/pkg/testutil/containers"
)

func TestProduceConsumeKeepsPerKeyOrder(t *testing.T) {
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := fmt.Sprintf("patient-events-%d", time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	p, err := producer.New(producer.Config{Brokers: []string{broker}, Topic: topic}, nil)
	require.NoError(t, err)
	defer func() { _ = p.Close(context.Background()) }()
	require.NoError(t, p.EnsureTopic(ctx, 3, 1))
	require.NoError(t, p.EnsureTopic(ctx, 3, 1), "second call tolerates an existing topic")
	require.NoError(t, p.Ping(ctx))

	keys := []string{"patient-a", "patient-b"}
	const perKey = 5
	for i := range perKey {
		for _, k := range keys {
			d, err := p.Produce(ctx, producer.Record{
				Key:     []byte(k),
				Value:   fmt.Appendf(nil, "%s-%d", k, i),
				Headers: map[string]string{"event_type": "PATIENT_CREATED"},
			})
			require.NoError(t, err)
			assert.Equal(t, topic, d.Topic)
		}
	}

	var (
		mu  sync.Mutex
		got = map[string][]string{}
	)
	total := make(chan struct{})
	handler := consumer.HandlerFunc(func(_ context.Context, msg *consumer.Message) error {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "PATIENT_CREATED", msg.Headers["event_type"])
		got[string(msg.Key)] = append(got[string(msg.Key)], string(msg.Value))
		if len(got[keys[0]])+len(got[keys[1]]) == perKey*len(keys) {
			close(total)
		}
		return nil
	})
	c, err := consumer.New(consumer.Config{Brokers: []string{broker}, Topic: topic, Group: "it-" + topic}, handler, nil)
	require.NoError(t, err)
	defer c.Close()

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- c.Run(runCtx) }()

	select {
	case <-total:
	case <-ctx.Done():
		t.Fatal("timed out waiting for records")
	}
	stop()
	require.NoError(t, <-done)

	for _, k := range keys {
		want := make([]string, 0, perKey)
		for i := range perKey {
			want = append(want, fmt.Sprintf("%s-%d", k, i))
		}
		assert.Equal(t, want, got[k], "records for %s out of order", k)
	}
}
