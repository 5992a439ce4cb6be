// Package domain holds typed identifiers shared across bounded contexts.
//
// IDs wrap uuid.UUID so a PatientID can never be passed where an EventID is
// expected. Parse functions are the trust boundary for identifiers arriving
// from HTTP paths, RPC payloads, or stream keys.
package domain

import (
	"github.com/google/uuid"

	dErrors "patientcore/pkg/domain-errors"
)

type (
	PatientID uuid.UUID
	EventID   uuid.UUID
)

// NewPatientID returns a fresh random patient identifier.
func NewPatientID() PatientID { return PatientID(uuid.New()) }

// NewEventID returns a fresh random event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

func (id PatientID) String() string { return uuid.UUID(id).String() }
func (id PatientID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EventID) String() string   { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets IDs appear as plain strings in JSON payloads.
func (id PatientID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *PatientID) UnmarshalText(b []byte) error {
	parsed, err := ParsePatientID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id EventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParsePatientID parses and validates a patient identifier.
func ParsePatientID(s string) (PatientID, error) {
	u, err := parseUUID(s, "patient id")
	return PatientID(u), err
}

// ParseEventID parses and validates an event identifier.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" must not be nil")
	}
	return u, nil
}
