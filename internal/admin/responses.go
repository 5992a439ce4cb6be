package admin

import (
	"time"

	"patientcore/internal/followup"
)

// BacklogEntryResponse is one patient still missing a billing account.
type BacklogEntryResponse struct {
	PatientID  string    `json:"patient_id"`
	Email      string    `json:"email"`
	Reason     string    `json:"reason"`
	RecordedAt time.Time `json:"recorded_at"`
}

// BacklogResponse wraps GET /admin/billing-backlog.
type BacklogResponse struct {
	Entries []BacklogEntryResponse `json:"entries"`
	Total   int                    `json:"total"`
}

// DeadLetterResponse is one undelivered event.
type DeadLetterResponse struct {
	EventID   string    `json:"event_id"`
	PatientID string    `json:"patient_id"`
	EventType string    `json:"event_type"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	FailedAt  time.Time `json:"failed_at"`
}

// DeadLettersResponse wraps GET /admin/dead-letters.
type DeadLettersResponse struct {
	DeadLetters []DeadLetterResponse `json:"dead_letters"`
	Total       int                  `json:"total"`
}

func toBacklogResponse(entries []followup.BacklogEntry) BacklogResponse {
	out := make([]BacklogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, BacklogEntryResponse{
			PatientID:  e.PatientID.String(),
			Email:      e.Email,
			Reason:     e.Reason,
			RecordedAt: e.RecordedAt,
		})
	}
	return BacklogResponse{Entries: out, Total: len(out)}
}

func toDeadLettersResponse(letters []followup.DeadLetter) DeadLettersResponse {
	out := make([]DeadLetterResponse, 0, len(letters))
	for _, l := range letters {
		out = append(out, DeadLetterResponse{
			EventID:   l.Event.EventID.String(),
			PatientID: l.Event.PatientID.String(),
			EventType: string(l.Event.EventType),
			Reason:    l.Reason,
			Attempts:  l.Attempts,
			Error:     l.Error,
			FailedAt:  l.FailedAt,
		})
	}
	return DeadLettersResponse{DeadLetters: out, Total: len(out)}
}
