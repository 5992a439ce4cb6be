// Package followup records work that the synchronous workflows could not
// finish: patients whose billing account is missing, and events that could
// not be delivered. External reconciliation reads these sinks.
package followup

import (
	"time"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
)

// BacklogEntry marks a patient persisted without a billing account.
type BacklogEntry struct {
	PatientID  id.PatientID `json:"patient_id"`
	Email      string       `json:"email"`
	Reason     string       `json:"reason"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// Dead-letter reasons.
const (
	ReasonExhausted      = "exhausted"
	ReasonEnqueueTimeout = "enqueue_timeout"
	ReasonClosed         = "closed"
	ReasonEncode         = "encode"
	ReasonShutdown       = "shutdown"
)

// DeadLetter is an event that will not be delivered without intervention.
type DeadLetter struct {
	Event    models.PatientEvent `json:"event"`
	Reason   string              `json:"reason"`
	Attempts int                 `json:"attempts"`
	Error    string              `json:"error,omitempty"`
	FailedAt time.Time           `json:"failed_at"`
}
