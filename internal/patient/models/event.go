package models

import (
	"time"

	id "patientcore/pkg/domain"
)

// EventType is the lifecycle transition carried by a PatientEvent.
type EventType string

const (
	EventCreated EventType = "CREATED"
	EventUpdated EventType = "UPDATED"
	EventDeleted EventType = "DELETED"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	default:
		return false
	}
}

// PatientEvent is one lifecycle fact. The stream key is PatientID so events
// for the same patient stay ordered; EventID lets consumers drop redeliveries.
type PatientEvent struct {
	EventID    id.EventID   `json:"eventId"`
	PatientID  id.PatientID `json:"patientId"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	EventType  EventType    `json:"eventType"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// NewPatientEvent builds an event snapshot of patient.
func NewPatientEvent(patient Patient, eventType EventType, now time.Time) PatientEvent {
	return PatientEvent{
		EventID:    id.NewEventID(),
		PatientID:  patient.ID,
		Name:       patient.Name,
		Email:      patient.Email,
		EventType:  eventType,
		OccurredAt: now.UTC(),
	}
}
