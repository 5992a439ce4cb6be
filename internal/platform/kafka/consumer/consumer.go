// Package consumer reads a Kafka topic as part of a consumer group and hands
// each record to a Handler. Offsets are committed only after the handler
// returns, so delivery is at-least-once.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// Handler processes one message. Returning nil marks it for commit. An error
// is retried; after MaxAttempts the message is logged and committed anyway so
// a poison record cannot stall the partition.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

type Config struct {
	Brokers     []string
	Topic       string
	Group       string
	MaxAttempts int
	RetryDelay  time.Duration
}

type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
	cfg     Config
}

func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.Group == "" {
		return nil, errors.New("kafka consumer: brokers, topic and group are required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger, cfg: cfg}, nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "kafka consumer started", "topic", c.cfg.Topic, "group", c.cfg.Group)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var done []*kgo.Record
		fetches.EachRecord(func(rec *kgo.Record) {
			if ctx.Err() != nil {
				return
			}
			c.dispatch(ctx, rec)
			done = append(done, rec)
		})
		if len(done) == 0 {
			continue
		}
		if err := c.client.CommitRecords(ctx, done...); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "kafka commit failed", "error", err, "records", len(done))
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, rec *kgo.Record) {
	msg := toMessage(rec)
	attempts := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryDelay), uint64(c.cfg.MaxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(func() error {
		attempts++
		return c.handler.Handle(ctx, msg)
	}, policy)
	if err != nil {
		c.logger.ErrorContext(ctx, "message handling failed, skipping",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempts", attempts,
			"error", err,
		)
	}
}

func toMessage(rec *kgo.Record) *Message {
	msg := &Message{
		Topic:     rec.Topic,
		Key:       rec.Key,
		Value:     rec.Value,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Timestamp: rec.Timestamp,
	}
	if len(rec.Headers) > 0 {
		msg.Headers = make(map[string]string, len(rec.Headers))
		for _, h := range rec.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}
