// Package producer publishes keyed records to Kafka with franz-go. Records
// with the same key land on the same partition, and idempotent production
// with acks=all keeps them in send order.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Record is one message to publish.
type Record struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Delivery is the broker acknowledgement for a record.
type Delivery struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Producer sends records synchronously to a single topic.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Config struct {
	Brokers []string
	Topic   string
	// DeliveryTimeout bounds how long franz-go retries a record internally.
	DeliveryTimeout time.Duration
}

// New connects lazily to the brokers.
func New(cfg Config, logger *slog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka producer: topic is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
		kgo.RecordDeliveryTimeout(timeout),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Produce blocks until the broker acknowledges the record or ctx ends.
func (p *Producer) Produce(ctx context.Context, rec Record) (Delivery, error) {
	kr := &kgo.Record{Topic: p.topic, Key: rec.Key, Value: rec.Value}
	for k, v := range rec.Headers {
		kr.Headers = append(kr.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	out, err := p.client.ProduceSync(ctx, kr).First()
	if err != nil {
		return Delivery{}, fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return Delivery{Topic: out.Topic, Partition: out.Partition, Offset: out.Offset}, nil
}

// EnsureTopic creates the topic unless it already exists.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	if partitions <= 0 {
		partitions = 1
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	p.logger.InfoContext(ctx, "kafka topic ready",
		"topic", p.topic,
		"partitions", partitions,
		"created", resp.Err == nil,
	)
	return nil
}

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
