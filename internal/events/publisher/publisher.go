// Package publisher delivers patient lifecycle events to the broker
// at-least-once. Events are spread over shards by patient id; each shard has
// a single worker, so events for one patient are delivered in the order they
// were published and never overtake each other during retries.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"patientcore/internal/followup"
	"patientcore/internal/patient/models"
	"patientcore/internal/platform/kafka/producer"
	"patientcore/pkg/platform/sentinel"
)

// ErrPublishFailed means the event will not reach the broker without
// intervention. It never fails the originating workflow.
var ErrPublishFailed = errors.New("event publish failed")

// Producer is the broker transport.
type Producer interface {
	Produce(ctx context.Context, rec producer.Record) (producer.Delivery, error)
}

// DeadLetterSink receives events that exhausted delivery.
type DeadLetterSink interface {
	RecordDeadLetter(ctx context.Context, letter followup.DeadLetter) error
}

// Observer receives delivery metrics.
type Observer interface {
	IncPublishAttempt()
	IncPublishAcked(eventType string)
	IncPublishFailed(eventType, reason string)
	AddQueued(delta int)
}

// Ack confirms a delivered event.
type Ack struct {
	Partition int32
	Offset    int64
	Attempts  int
}

type Config struct {
	Shards         int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	EnqueueTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Shards:         8,
		QueueSize:      256,
		MaxAttempts:    5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		EnqueueTimeout: 250 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Shards <= 0 {
		c.Shards = d.Shards
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = max(d.MaxBackoff, c.InitialBackoff)
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = d.EnqueueTimeout
	}
	return c
}

type job struct {
	ctx   context.Context
	event models.PatientEvent
}

// Publisher is safe for concurrent use. Start it with New and stop it with
// Close; every event accepted by Publish is delivered or dead-lettered before
// Close returns.
type Publisher struct {
	producer Producer
	dead     DeadLetterSink
	obs      Observer
	logger   *slog.Logger
	tracer   trace.Tracer
	cfg      Config

	shards []chan job
	wg     sync.WaitGroup

	// runCtx is cancelled when Close gives up waiting; in-flight retries then
	// stop and their events are dead-lettered.
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

func WithConfig(cfg Config) Option {
	return func(p *Publisher) {
		p.cfg = cfg
	}
}

func WithDeadLetters(sink DeadLetterSink) Option {
	return func(p *Publisher) {
		p.dead = sink
	}
}

func WithObserver(obs Observer) Option {
	return func(p *Publisher) {
		p.obs = obs
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New starts one worker per shard.
func New(prod Producer, opts ...Option) *Publisher {
	p := &Publisher{
		producer: prod,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("patientcore/events/publisher"),
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cfg = p.cfg.withDefaults()
	p.runCtx, p.cancelRun = context.WithCancel(context.Background())

	p.shards = make([]chan job, p.cfg.Shards)
	for i := range p.shards {
		p.shards[i] = make(chan job, p.cfg.QueueSize)
		p.wg.Add(1)
		go p.work(p.shards[i])
	}
	return p
}

// Publish hands the event to its shard and returns without waiting for the
// broker. Cancelling ctx afterwards does not abandon delivery. If the shard
// stays full for EnqueueTimeout, or the publisher is closed, the event is
// dead-lettered and an error wrapping ErrPublishFailed is returned.
func (p *Publisher) Publish(ctx context.Context, event models.PatientEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.fail(ctx, event, followup.ReasonClosed, 0, sentinel.ErrClosed)
		return fmt.Errorf("publisher closed: %w", errors.Join(ErrPublishFailed, sentinel.ErrClosed))
	}

	j := job{ctx: context.WithoutCancel(ctx), event: event}
	ch := p.shards[ShardFor(event.PatientID.String(), len(p.shards))]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- j:
		p.queued(1)
		return nil
	case <-timer.C:
		err := fmt.Errorf("shard queue full after %s", p.cfg.EnqueueTimeout)
		p.fail(ctx, event, followup.ReasonEnqueueTimeout, 0, err)
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
}

// Deliver sends the event synchronously with bounded retry. It does not go
// through the shard queues, so callers must serialise events per patient
// themselves.
func (p *Publisher) Deliver(ctx context.Context, event models.PatientEvent) (Ack, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: encode event: %w", ErrPublishFailed, err)
	}
	rec := producer.Record{
		Key:   []byte(event.PatientID.String()),
		Value: value,
		Headers: map[string]string{
			"event_id":   event.EventID.String(),
			"event_type": string(event.EventType),
		},
	}

	ctx, span := p.tracer.Start(ctx, "publisher.deliver", trace.WithAttributes(
		attribute.String("event.id", event.EventID.String()),
		attribute.String("event.type", string(event.EventType)),
		attribute.String("patient.id", event.PatientID.String()),
	))
	defer span.End()

	var (
		ack      Ack
		attempts int
	)
	policy := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), uint64(p.cfg.MaxAttempts-1)), ctx)
	op := func() error {
		attempts++
		if p.obs != nil {
			p.obs.IncPublishAttempt()
		}
		d, err := p.producer.Produce(ctx, rec)
		if err != nil {
			return err
		}
		ack = Ack{Partition: d.Partition, Offset: d.Offset, Attempts: attempts}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		p.logger.WarnContext(ctx, "event delivery attempt failed, retrying",
			"event_id", event.EventID.String(),
			"patient_id", event.PatientID.String(),
			"attempt", attempts,
			"retry_in", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		return Ack{Attempts: attempts}, fmt.Errorf("%w after %d attempts: %w", ErrPublishFailed, attempts, err)
	}
	span.SetAttributes(attribute.Int("publish.attempts", attempts))
	if p.obs != nil {
		p.obs.IncPublishAcked(string(event.EventType))
	}
	return ack, nil
}

// Close stops intake and waits for the shards to drain. If ctx ends first,
// in-flight retries are abandoned, remaining events are dead-lettered and
// ctx.Err() is returned.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, ch := range p.shards {
		close(ch)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelRun()
		return nil
	case <-ctx.Done():
		p.cancelRun()
		<-done
		return ctx.Err()
	}
}

func (p *Publisher) work(ch <-chan job) {
	defer p.wg.Done()
	for j := range ch {
		p.process(j)
		p.queued(-1)
	}
}

func (p *Publisher) process(j job) {
	ctx, stop := mergeCancel(j.ctx, p.runCtx)
	defer stop()

	ack, err := p.Deliver(ctx, j.event)
	if err != nil {
		reason := followup.ReasonExhausted
		if p.runCtx.Err() != nil {
			reason = followup.ReasonShutdown
		}
		p.fail(j.ctx, j.event, reason, ack.Attempts, err)
		return
	}
	p.logger.DebugContext(ctx, "event delivered",
		"event_id", j.event.EventID.String(),
		"patient_id", j.event.PatientID.String(),
		"partition", ack.Partition,
		"offset", ack.Offset,
		"attempts", ack.Attempts,
	)
}

// fail records an undeliverable event in logs, metrics and the dead-letter sink.
func (p *Publisher) fail(ctx context.Context, event models.PatientEvent, reason string, attempts int, cause error) {
	p.logger.ErrorContext(ctx, "event publish failed",
		"event_id", event.EventID.String(),
		"patient_id", event.PatientID.String(),
		"event_type", string(event.EventType),
		"reason", reason,
		"attempts", attempts,
		"error", cause,
	)
	if p.obs != nil {
		p.obs.IncPublishFailed(string(event.EventType), reason)
	}
	if p.dead == nil {
		return
	}
	letter := followup.DeadLetter{
		Event:    event,
		Reason:   reason,
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	}
	if cause != nil {
		letter.Error = cause.Error()
	}
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.dead.RecordDeadLetter(sinkCtx, letter); err != nil {
		p.logger.ErrorContext(ctx, "dead letter write failed",
			"event_id", event.EventID.String(),
			"error", err,
		)
	}
}

func (p *Publisher) queued(delta int) {
	if p.obs != nil {
		p.obs.AddQueued(delta)
	}
}

func (p *Publisher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialBackoff
	b.MaxInterval = p.cfg.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// mergeCancel returns a context carrying base's values that is cancelled
// when either base or stop is done.
func mergeCancel(base, stop context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	unregister := context.AfterFunc(stop, cancel)
	return ctx, func() {
		unregister()
		cancel()
	}
}
