// Package analytics consumes the patient event stream and keeps a
// deduplicated projection of lifecycle facts.
package analytics

import (
	"context"
	"time"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
)

// Record is one stored patient event.
type Record struct {
	EventID    id.EventID
	PatientID  id.PatientID
	EventType  models.EventType
	OccurredAt time.Time
	ReceivedAt time.Time
	Partition  int32
	Offset     int64
}

// Projection stores events keyed by event id. Append reports false when the
// event was already recorded, which is how redeliveries are absorbed.
type Projection interface {
	Append(ctx context.Context, rec Record) (bool, error)
	Counts(ctx context.Context) (map[models.EventType]int64, error)
}
