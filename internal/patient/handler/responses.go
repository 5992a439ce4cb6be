package handler

import (
	"time"

	"patientcore/internal/patient/models"
	"patientcore/internal/patient/service"
)

// PatientResponse is the wire form of a stored patient.
type PatientResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	DateOfBirth    string    `json:"date_of_birth"`
	RegisteredDate string    `json:"registered_date"`
	Version        int64     `json:"version"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// BillingResponse tells the caller whether billing provisioning succeeded.
type BillingResponse struct {
	Status    string `json:"status"`
	AccountID string `json:"account_id,omitempty"`
	Degraded  bool   `json:"degraded"`
}

// CreateResponse is returned by POST /patients.
type CreateResponse struct {
	Patient PatientResponse `json:"patient"`
	State   string          `json:"state"`
	Billing BillingResponse `json:"billing"`
}

// ListResponse wraps GET /patients.
type ListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Count    int               `json:"count"`
}

func fromPatient(p *models.Patient) PatientResponse {
	return PatientResponse{
		ID:             p.ID.String(),
		Name:           p.Name,
		Email:          p.Email,
		Address:        p.Address,
		DateOfBirth:    p.DateOfBirth.Format(models.DateLayout),
		RegisteredDate: p.RegisteredDate.Format(models.DateLayout),
		Version:        p.Version,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromCreateResult(res *service.CreateResult) CreateResponse {
	billing := BillingResponse{
		Status:   string(res.Billing.Status),
		Degraded: res.Billing.Degraded,
	}
	if res.Billing.Account != nil {
		billing.AccountID = res.Billing.Account.AccountID
	}
	return CreateResponse{
		Patient: fromPatient(res.Patient),
		State:   string(res.State),
		Billing: billing,
	}
}

func fromPatients(patients []*models.Patient) ListResponse {
	out := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, fromPatient(p))
	}
	return ListResponse{Patients: out, Count: len(out)}
}
