// Package admin serves the operator view of follow-up work: patients still
// missing a billing account and events that were dead-lettered.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"patientcore/internal/followup"
	id "patientcore/pkg/domain"
	dErrors "patientcore/pkg/domain-errors"
	adminmw "patientcore/pkg/platform/middleware/admin"
	"patientcore/pkg/platform/httputil"
)

const (
	defaultDeadLetterLimit = 50
	maxDeadLetterLimit     = 500
)

// Backlog is the reconciliation queue of patients without billing.
type Backlog interface {
	Pending(ctx context.Context) ([]followup.BacklogEntry, error)
	Resolve(ctx context.Context, patientID id.PatientID) error
}

// DeadLetters lists undeliverable events, newest first.
type DeadLetters interface {
	List(ctx context.Context, limit int) ([]followup.DeadLetter, error)
}

type Handler struct {
	backlog Backlog
	dead    DeadLetters
	token   string
	logger  *slog.Logger
}

func New(backlog Backlog, dead DeadLetters, token string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{backlog: backlog, dead: dead, token: token, logger: logger}
}

// Register mounts the admin routes behind the admin token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(h.token, h.logger))
		r.Get("/billing-backlog", h.HandleBacklog)
		r.Delete("/billing-backlog/{id}", h.HandleResolve)
		r.Get("/dead-letters", h.HandleDeadLetters)
	})
}

func (h *Handler) HandleBacklog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.backlog.Pending(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "billing backlog unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBacklogResponse(entries))
}

// HandleResolve drops a patient from the backlog once billing was fixed.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID, err := id.ParsePatientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.backlog.Resolve(ctx, patientID); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "billing backlog unavailable"))
		return
	}
	h.logger.InfoContext(ctx, "billing backlog entry resolved", "patient_id", patientID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit := defaultDeadLetterLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxDeadLetterLimit)
	}
	letters, err := h.dead.List(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "dead letters unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDeadLettersResponse(letters))
}
