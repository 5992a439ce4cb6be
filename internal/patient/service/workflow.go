package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
	dErrors "patientcore/pkg/domain-errors"
	"patientcore/pkg/requestcontext"
)

// workflow tracks one request through the state machine.
type workflow struct {
	op        string
	state     models.WorkflowState
	now       time.Time
	started   time.Time
	patientID id.PatientID
	span      trace.Span
}

func (w *workflow) clock() time.Time { return w.now }

func (w *workflow) enter(state models.WorkflowState) {
	w.state = state
	w.span.AddEvent("state", trace.WithAttributes(attribute.String("workflow.state", string(state))))
}

// begin pins the request time so validation, the store and events agree on it.
func (s *Service) begin(ctx context.Context, op string) (context.Context, *workflow) {
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)
	ctx, span := s.tracer.Start(ctx, "patient."+op, trace.WithAttributes(
		attribute.String("workflow.operation", op),
	))
	wf := &workflow{op: op, now: now, started: time.Now(), span: span}
	wf.enter(models.StateValidating)
	return ctx, wf
}

func (s *Service) finish(ctx context.Context, wf *workflow, state models.WorkflowState, err error) {
	wf.enter(state)
	attrs := []any{
		"operation", wf.op,
		"state", string(state),
		"request_id", requestcontext.RequestID(ctx),
		"duration_ms", time.Since(wf.started).Milliseconds(),
	}
	if !wf.patientID.IsNil() {
		attrs = append(attrs, "patient_id", wf.patientID.String())
		wf.span.SetAttributes(attribute.String("patient.id", wf.patientID.String()))
	}

	switch state {
	case models.StateFailed:
		wf.span.RecordError(err)
		wf.span.SetStatus(codes.Error, string(state))
		s.logger.ErrorContext(ctx, "patient workflow failed", append(attrs, "error", err)...)
	case models.StateRejected, models.StateConflict, models.StateNotFound:
		wf.span.SetStatus(codes.Error, string(state))
		s.logger.InfoContext(ctx, "patient workflow refused", append(attrs, "code", string(dErrors.GetCode(err)))...)
	case models.StateDoneWithBillingWarning:
		s.logger.WarnContext(ctx, "patient workflow completed with billing warning", attrs...)
	default:
		s.logger.InfoContext(ctx, "patient workflow completed", attrs...)
	}

	wf.span.SetAttributes(attribute.String("workflow.state", string(state)))
	wf.span.End()
	s.metrics.ObserveWorkflow(wf.op, string(state), time.Since(wf.started))
}
