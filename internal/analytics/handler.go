package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"patientcore/internal/patient/models"
	"patientcore/internal/platform/kafka/consumer"
)

// Handler turns consumed records into projection entries.
type Handler struct {
	projection Projection
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHandler(projection Projection, opts ...Option) *Handler {
	h := &Handler{
		projection: projection,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle records one patient event. Malformed payloads are logged and
// committed; projection failures are returned so the consumer retries.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	var event models.PatientEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil || !event.EventType.IsValid() || event.EventID.IsNil() {
		h.logger.WarnContext(ctx, "dropping malformed patient event",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		h.metrics.observe("unknown", resultMalformed)
		return nil
	}

	now := h.now().UTC()
	inserted, err := h.projection.Append(ctx, Record{
		EventID:    event.EventID,
		PatientID:  event.PatientID,
		EventType:  event.EventType,
		OccurredAt: event.OccurredAt,
		ReceivedAt: now,
		Partition:  msg.Partition,
		Offset:     msg.Offset,
	})
	if err != nil {
		h.metrics.observe(string(event.EventType), resultError)
		return err
	}
	if !inserted {
		h.logger.DebugContext(ctx, "duplicate patient event ignored",
			"event_id", event.EventID.String(),
			"patient_id", event.PatientID.String(),
		)
		h.metrics.observe(string(event.EventType), resultDuplicate)
		return nil
	}

	h.metrics.observe(string(event.EventType), resultRecorded)
	h.metrics.observeLag(now.Sub(event.OccurredAt).Seconds())
	h.logger.InfoContext(ctx, "patient event recorded",
		"event_id", event.EventID.String(),
		"patient_id", event.PatientID.String(),
		"event_type", string(event.EventType),
	)
	return nil
}
