// Package handler exposes the patient orchestrator over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"patientcore/internal/patient/models"
	"patientcore/internal/patient/service"
	id "patientcore/pkg/domain"
	"patientcore/pkg/platform/httputil"
	"patientcore/pkg/requestcontext"
)

// Service defines the patient operations the handler drives.
type Service interface {
	Create(ctx context.Context, req models.PatientRequest) (*service.CreateResult, error)
	Update(ctx context.Context, patientID id.PatientID, req models.PatientRequest) (*service.UpdateResult, error)
	Delete(ctx context.Context, patientID id.PatientID) (*service.DeleteResult, error)
	Get(ctx context.Context, patientID id.PatientID) (*models.Patient, error)
	List(ctx context.Context) ([]*models.Patient, error)
}

// Handler wires patient endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a patient handler. A nil logger discards output.
func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts patient endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Patch("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleCreate handles POST /patients. A degraded billing outcome still
// answers 201; the billing block carries the warning.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[models.PatientRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid create patient request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Create(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Location", "/patients/"+res.Patient.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, fromCreateResult(res))
}

// HandleUpdate handles PUT and PATCH /patients/{id}; both are partial.
// A patch that changes nothing (empty, or equal to the stored values) still
// answers 200 with the current patient but publishes no PATIENT_UPDATED.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID, ok := h.patientID(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[models.PatientRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Update(ctx, patientID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPatient(res.Patient))
}

// HandleDelete handles DELETE /patients/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientID(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Delete(r.Context(), patientID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), patientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPatient(p))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPatients(patients))
}

func (h *Handler) patientID(w http.ResponseWriter, r *http.Request) (id.PatientID, bool) {
	patientID, err := id.ParsePatientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PatientID{}, false
	}
	return patientID, true
}
