package models

import (
	"strings"
	"time"

	id "patientcore/pkg/domain"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Patient is the durable record owned by the patient store.
//
// Invariants:
//   - ID is assigned at creation and never changes
//   - Email is unique across all patients (case-insensitive), enforced by the store
//   - Name and Address are non-blank
//   - DateOfBirth is a past date
//   - Version increases by one on every persisted change
type Patient struct {
	ID             id.PatientID `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Address        string       `json:"address"`
	DateOfBirth    time.Time    `json:"date_of_birth"`
	RegisteredDate time.Time    `json:"registered_date"`
	Version        int64        `json:"version"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Draft is a validated creation payload; every field is present.
type Draft struct {
	Name        string
	Email       string
	Address     string
	DateOfBirth time.Time
}

// Patch is a validated partial update; nil fields are left unchanged.
type Patch struct {
	Name        *string
	Email       *string
	Address     *string
	DateOfBirth *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Address == nil && p.DateOfBirth == nil
}

// Apply returns a copy of patient with the patch fields overlaid and reports
// whether any value actually changed.
func (p Patch) Apply(patient Patient) (Patient, bool) {
	changed := false
	if p.Name != nil && *p.Name != patient.Name {
		patient.Name = *p.Name
		changed = true
	}
	if p.Email != nil && !strings.EqualFold(*p.Email, patient.Email) {
		patient.Email = *p.Email
		changed = true
	}
	if p.Address != nil && *p.Address != patient.Address {
		patient.Address = *p.Address
		changed = true
	}
	if p.DateOfBirth != nil && !p.DateOfBirth.Equal(patient.DateOfBirth) {
		patient.DateOfBirth = *p.DateOfBirth
		changed = true
	}
	return patient, changed
}

// NormalizeEmail is the canonical form used for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DateOnly truncates t to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PatientRequest is the raw inbound payload for create and update.
// Pointers distinguish "absent" from "empty" for partial updates.
type PatientRequest struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}
