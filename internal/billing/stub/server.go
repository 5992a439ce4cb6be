// Package stub is a self-contained billing service that provisions accounts
// in memory. It backs cmd/billing-stub and the billing client tests.
package stub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	billingpb "patientcore/internal/billing/billingpb"
)

// Server implements billingpb.BillingServiceServer. Repeated calls for the
// same patient return the account provisioned first.
type Server struct {
	billingpb.UnimplementedBillingServiceServer

	logger   *slog.Logger
	latency  time.Duration
	seq      atomic.Int64
	mu       sync.Mutex
	accounts map[string]string
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLatency delays every answer, which lets local runs exercise the
// client timeout.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

func New(opts ...Option) *Server {
	s := &Server{
		logger:   slog.New(slog.DiscardHandler),
		accounts: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) CreateAccount(ctx context.Context, req *billingpb.CreateAccountRequest) (*billingpb.CreateAccountResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}
	switch {
	case strings.TrimSpace(req.GetPatientId()) == "":
		return nil, status.Error(codes.InvalidArgument, "patient_id is required")
	case strings.TrimSpace(req.GetName()) == "":
		return nil, status.Error(codes.InvalidArgument, "name is required")
	case strings.TrimSpace(req.GetEmail()) == "":
		return nil, status.Error(codes.InvalidArgument, "email is required")
	}

	s.mu.Lock()
	accountID, ok := s.accounts[req.GetPatientId()]
	if !ok {
		accountID = fmt.Sprintf("acct-%d", s.seq.Add(1))
		s.accounts[req.GetPatientId()] = accountID
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "billing account provisioned",
		"patient_id", req.GetPatientId(),
		"account_id", accountID,
		"existing", ok,
	)
	return &billingpb.CreateAccountResponse{
		AccountId: accountID,
		Status:    billingpb.AccountStatus_ACCOUNT_STATUS_CREATED,
	}, nil
}

// Accounts reports how many distinct accounts exist.
func (s *Server) Accounts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// Register attaches the billing and health services to srv.
func (s *Server) Register(srv *grpc.Server) {
	billingpb.RegisterBillingServiceServer(srv, s)
	hs := health.NewServer()
	hs.SetServingStatus(billingpb.BillingService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
}
