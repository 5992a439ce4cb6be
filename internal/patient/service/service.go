// Package service orchestrates patient create, update and delete.
//
// A creation moves through VALIDATING, PERSISTING, BILLING and PUBLISHING.
// Only validation and the store write can fail the request; once the patient
// is persisted the record is never rolled back, billing problems degrade the
// result and publication problems are only logged, metered and dead-lettered.
// Steps after the store write run on a context detached from the caller, so a
// client disconnect does not abandon them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"patientcore/internal/followup"
	"patientcore/internal/patient/metrics"
	"patientcore/internal/patient/models"
	"patientcore/internal/patient/store"
	"patientcore/internal/patient/validation"
	id "patientcore/pkg/domain"
	dErrors "patientcore/pkg/domain-errors"
	"patientcore/pkg/platform/sentinel"
	"patientcore/pkg/requestcontext"
)

// Store is the patient store gateway.
type Store interface {
	Create(ctx context.Context, draft models.Draft) (*models.Patient, error)
	Update(ctx context.Context, patientID id.PatientID, patch models.Patch) (*models.Patient, bool, error)
	Delete(ctx context.Context, patientID id.PatientID) (*models.Patient, error)
	FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error)
	List(ctx context.Context) ([]*models.Patient, error)
}

// BillingClient provisions billing accounts. Errors wrap
// sentinel.ErrUnavailable or sentinel.ErrRejected.
type BillingClient interface {
	CreateAccount(ctx context.Context, patient models.Patient) (models.BillingAccount, error)
}

// EventPublisher accepts lifecycle events for asynchronous delivery.
type EventPublisher interface {
	Publish(ctx context.Context, event models.PatientEvent) error
}

// BillingBacklog records patients that still need a billing account.
type BillingBacklog interface {
	Record(ctx context.Context, entry followup.BacklogEntry) error
}

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// CreateResult is returned for every creation that persisted a patient.
type CreateResult struct {
	Patient *models.Patient
	State   models.WorkflowState
	Billing models.BillingOutcome
}

// UpdateResult reports whether the update changed the stored record.
type UpdateResult struct {
	Patient *models.Patient
	State   models.WorkflowState
	Changed bool
}

// DeleteResult carries the removed record.
type DeleteResult struct {
	Patient *models.Patient
	State   models.WorkflowState
}

type Service struct {
	store   Store
	billing BillingClient
	events  EventPublisher
	backlog BillingBacklog
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBillingBacklog records degraded creations for reconciliation.
func WithBillingBacklog(backlog BillingBacklog) Option {
	return func(s *Service) {
		s.backlog = backlog
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// New wires the orchestrator to its three collaborators.
func New(st Store, billing BillingClient, events EventPublisher, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("patient store is required")
	}
	if billing == nil {
		return nil, errors.New("billing client is required")
	}
	if events == nil {
		return nil, errors.New("event publisher is required")
	}
	s := &Service{
		store:   st,
		billing: billing,
		events:  events,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer("patientcore/patient/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates, persists, provisions billing and publishes CREATED.
func (s *Service) Create(ctx context.Context, req models.PatientRequest) (*CreateResult, error) {
	ctx, wf := s.begin(ctx, opCreate)

	result, err := validation.New(wf.clock).Validate(validation.ModeCreate, req)
	if err != nil {
		s.finish(ctx, wf, models.StateRejected, err)
		return nil, err
	}

	wf.enter(models.StatePersisting)
	patient, err := s.persist(ctx, "store.create", func(ctx context.Context) (*models.Patient, error) {
		return s.store.Create(ctx, result.Draft)
	})
	if err != nil {
		state, derr := translateStoreError(err)
		s.finish(ctx, wf, state, derr)
		return nil, derr
	}
	wf.patientID = patient.ID

	// The record is durable from here on.
	detached := context.WithoutCancel(ctx)

	wf.enter(models.StateBilling)
	outcome := s.provisionBilling(detached, *patient)

	wf.enter(models.StatePublishing)
	s.publish(detached, models.NewPatientEvent(*patient, models.EventCreated, wf.now))

	state := models.StateDone
	if outcome.Degraded {
		state = models.StateDoneWithBillingWarning
	}
	s.finish(detached, wf, state, nil)
	return &CreateResult{Patient: patient, State: state, Billing: outcome}, nil
}

// Update applies a partial change. An empty or identical patch returns the
// current record without publishing anything.
func (s *Service) Update(ctx context.Context, patientID id.PatientID, req models.PatientRequest) (*UpdateResult, error) {
	ctx, wf := s.begin(ctx, opUpdate)
	wf.patientID = patientID

	result, err := validation.New(wf.clock).Validate(validation.ModeUpdate, req)
	if err != nil {
		s.finish(ctx, wf, models.StateRejected, err)
		return nil, err
	}

	wf.enter(models.StatePersisting)
	var changed bool
	patient, err := s.persist(ctx, "store.update", func(ctx context.Context) (*models.Patient, error) {
		if result.Patch.IsEmpty() {
			return s.store.FindByID(ctx, patientID)
		}
		p, c, err := s.store.Update(ctx, patientID, result.Patch)
		changed = c
		return p, err
	})
	if err != nil {
		state, derr := translateStoreError(err)
		s.finish(ctx, wf, state, derr)
		return nil, derr
	}

	detached := context.WithoutCancel(ctx)
	if changed {
		wf.enter(models.StatePublishing)
		s.publish(detached, models.NewPatientEvent(*patient, models.EventUpdated, wf.now))
	}
	s.finish(detached, wf, models.StateDone, nil)
	return &UpdateResult{Patient: patient, State: models.StateDone, Changed: changed}, nil
}

// Delete removes the patient and publishes DELETED with its last snapshot.
func (s *Service) Delete(ctx context.Context, patientID id.PatientID) (*DeleteResult, error) {
	ctx, wf := s.begin(ctx, opDelete)
	wf.patientID = patientID

	wf.enter(models.StatePersisting)
	patient, err := s.persist(ctx, "store.delete", func(ctx context.Context) (*models.Patient, error) {
		return s.store.Delete(ctx, patientID)
	})
	if err != nil {
		state, derr := translateStoreError(err)
		s.finish(ctx, wf, state, derr)
		return nil, derr
	}

	detached := context.WithoutCancel(ctx)
	wf.enter(models.StatePublishing)
	s.publish(detached, models.NewPatientEvent(*patient, models.EventDeleted, wf.now))
	s.finish(detached, wf, models.StateDone, nil)
	return &DeleteResult{Patient: patient, State: models.StateDone}, nil
}

func (s *Service) Get(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	p, err := s.store.FindByID(ctx, patientID)
	if err != nil {
		_, derr := translateStoreError(err)
		return nil, derr
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Patient, error) {
	patients, err := s.store.List(ctx)
	if err != nil {
		_, derr := translateStoreError(err)
		return nil, derr
	}
	return patients, nil
}

func (s *Service) persist(ctx context.Context, name string, fn func(context.Context) (*models.Patient, error)) (*models.Patient, error) {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	p, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store operation failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("patient.id", p.ID.String()))
	return p, nil
}

// provisionBilling never fails: every problem becomes a degraded outcome.
func (s *Service) provisionBilling(ctx context.Context, patient models.Patient) models.BillingOutcome {
	ctx, span := s.tracer.Start(ctx, "billing.create_account", trace.WithAttributes(
		attribute.String("patient.id", patient.ID.String()),
	))
	defer span.End()

	account, err := s.billing.CreateAccount(ctx, patient)
	if err == nil {
		return models.BillingOutcome{Status: models.BillingProvisioned, Account: &account}
	}

	status := models.BillingUnavailable
	if errors.Is(err, sentinel.ErrRejected) {
		status = models.BillingRejected
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(status))
	s.logger.WarnContext(ctx, "billing degraded, patient kept",
		"patient_id", patient.ID.String(),
		"billing_status", string(status),
		"error", err,
	)

	if s.backlog != nil {
		entry := followup.BacklogEntry{
			PatientID:  patient.ID,
			Email:      patient.Email,
			Reason:     fmt.Sprintf("%s: %v", status, err),
			RecordedAt: requestcontext.Now(ctx).UTC(),
		}
		if berr := s.backlog.Record(ctx, entry); berr != nil {
			s.logger.ErrorContext(ctx, "failed to record billing backlog",
				"patient_id", patient.ID.String(),
				"error", berr,
			)
		}
	}
	return models.BillingOutcome{Status: status, Degraded: true, Reason: err.Error()}
}

// publish hands the event over. Failures are already dead-lettered by the
// publisher; they are logged here with the workflow context.
func (s *Service) publish(ctx context.Context, event models.PatientEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "event not accepted for delivery",
			"event_id", event.EventID.String(),
			"patient_id", event.PatientID.String(),
			"event_type", string(event.EventType),
			"error", err,
		)
	}
}

func translateStoreError(err error) (models.WorkflowState, error) {
	switch {
	case errors.Is(err, store.ErrStaleVersion):
		return models.StateConflict, dErrors.Wrap(err, dErrors.CodeConflict, "patient was modified concurrently, retry the request")
	case errors.Is(err, sentinel.ErrConflict):
		return models.StateConflict, dErrors.Wrap(err, dErrors.CodeConflict, "a patient with this email already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return models.StateNotFound, dErrors.Wrap(err, dErrors.CodeNotFound, "patient not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.StateFailed, dErrors.Wrap(err, dErrors.CodeTimeout, "request ended before the patient store answered")
	default:
		return models.StateFailed, dErrors.Wrap(err, dErrors.CodeUnavailable, "patient store unavailable")
	}
}
