// Package billing calls the remote billing service to open an account for a
// newly created patient. Every failure is reported as one of two sentinels:
// sentinel.ErrUnavailable (timeout, transport failure, open circuit) or
// sentinel.ErrRejected (billing answered and declined). The client never
// retries.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	billingpb "patientcore/internal/billing/billingpb"
	"patientcore/internal/patient/models"
	"patientcore/pkg/platform/circuit"
	"patientcore/pkg/platform/sentinel"
	"patientcore/pkg/requestcontext"
)

// MaxTimeout bounds a single billing call. Longer configured values are capped.
const MaxTimeout = 5 * time.Second

// Outcome labels reported to the Observer.
const (
	OutcomeProvisioned = "provisioned"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
	OutcomeCircuitOpen = "circuit_open"
)

// Observer receives one call per CreateAccount invocation.
type Observer interface {
	ObserveBillingCall(outcome string, d time.Duration)
}

// Client is safe for concurrent use.
type Client struct {
	rpc     billingpb.BillingServiceClient
	conn    *grpc.ClientConn
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	obs     Observer
}

type Option func(*Client)

// WithTimeout sets the per-call deadline, capped at MaxTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = min(d, MaxTimeout)
		}
	}
}

// WithBreaker attaches a circuit breaker. Without one every call goes out.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(c *Client) {
		c.obs = obs
	}
}

// Dial opens a lazily connected client to addr. The connection is
// instrumented with OpenTelemetry and owned by the returned Client.
func Dial(addr string, opts ...Option) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to billing service: %w", err)
	}
	c := New(conn, opts...)
	c.conn = conn
	return c, nil
}

// New wraps an existing connection. The caller keeps ownership of cc.
func New(cc grpc.ClientConnInterface, opts ...Option) *Client {
	c := &Client{
		rpc:     billingpb.NewBillingServiceClient(cc),
		timeout: MaxTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAccount asks billing to provision an account for patient.
func (c *Client) CreateAccount(ctx context.Context, patient models.Patient) (models.BillingAccount, error) {
	start := time.Now()
	if c.breaker != nil && !c.breaker.Allow() {
		c.observe(OutcomeCircuitOpen, start)
		return models.BillingAccount{}, fmt.Errorf("billing circuit open: %w", sentinel.ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", requestID)
	}

	resp, err := c.rpc.CreateAccount(ctx, toCreateAccountRequest(patient))
	if err != nil {
		mapped := mapError(err)
		c.record(ctx, mapped)
		c.observe(outcomeOf(mapped), start)
		return models.BillingAccount{}, mapped
	}
	if resp.GetStatus() != billingpb.AccountStatus_ACCOUNT_STATUS_CREATED || resp.GetAccountId() == "" {
		c.record(ctx, nil)
		c.observe(OutcomeRejected, start)
		return models.BillingAccount{}, fmt.Errorf("billing returned status %q: %w", accountStatus(resp.GetStatus()), sentinel.ErrRejected)
	}

	c.record(ctx, nil)
	c.observe(OutcomeProvisioned, start)
	return fromCreateAccountResponse(resp), nil
}

func toCreateAccountRequest(patient models.Patient) *billingpb.CreateAccountRequest {
	return &billingpb.CreateAccountRequest{
		PatientId: patient.ID.String(),
		Name:      patient.Name,
		Email:     patient.Email,
	}
}

func fromCreateAccountResponse(resp *billingpb.CreateAccountResponse) models.BillingAccount {
	return models.BillingAccount{
		AccountID: resp.GetAccountId(),
		Status:    accountStatus(resp.GetStatus()),
	}
}

// accountStatus strips the enum prefix: ACCOUNT_STATUS_CREATED becomes CREATED.
func accountStatus(s billingpb.AccountStatus) string {
	return strings.TrimPrefix(s.String(), "ACCOUNT_STATUS_")
}

// Close releases the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// record feeds the breaker. Only unavailability counts as a failure; a
// rejection proves the service is alive.
func (c *Client) record(ctx context.Context, err error) {
	if c.breaker == nil {
		return
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "billing circuit opened", "breaker", c.breaker.Name())
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "billing circuit closed", "breaker", c.breaker.Name())
	}
}

func (c *Client) observe(outcome string, start time.Time) {
	if c.obs != nil {
		c.obs.ObserveBillingCall(outcome, time.Since(start))
	}
}

func outcomeOf(err error) string {
	if errors.Is(err, sentinel.ErrRejected) {
		return OutcomeRejected
	}
	return OutcomeUnavailable
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("billing call: %v: %w", err, sentinel.ErrUnavailable)
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("billing call: %v: %w", err, sentinel.ErrUnavailable)
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists, codes.PermissionDenied:
		return fmt.Errorf("billing rejected: %s: %w", st.Message(), sentinel.ErrRejected)
	case codes.DeadlineExceeded:
		return fmt.Errorf("billing timeout: %w", sentinel.ErrUnavailable)
	default:
		return fmt.Errorf("billing %s: %s: %w", st.Code(), st.Message(), sentinel.ErrUnavailable)
	}
}
