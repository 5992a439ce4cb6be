package followup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
)

func TestMemoryBacklog(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBacklog()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	first := BacklogEntry{PatientID: id.NewPatientID(), Reason: "timeout", RecordedAt: base.Add(time.Minute)}
	second := BacklogEntry{PatientID: id.NewPatientID(), Reason: "unavailable", RecordedAt: base}
	require.NoError(t, b.Record(ctx, first))
	require.NoError(t, b.Record(ctx, second))

	pending, err := b.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.PatientID, pending[0].PatientID, "oldest first")

	require.NoError(t, b.Record(ctx, first), "re-recording keeps one entry")
	require.NoError(t, b.Resolve(ctx, second.PatientID))
	pending, err = b.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.PatientID, pending[0].PatientID)
}

func TestMemoryDeadLetters(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDeadLetters(2)

	for _, et := range []models.EventType{models.EventCreated, models.EventUpdated, models.EventDeleted} {
		require.NoError(t, d.RecordDeadLetter(ctx, DeadLetter{
			Event:  models.PatientEvent{EventID: id.NewEventID(), EventType: et},
			Reason: ReasonExhausted,
		}))
	}

	all, err := d.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2, "capped at max")
	assert.Equal(t, models.EventDeleted, all[0].Event.EventType)
	assert.Equal(t, models.EventUpdated, all[1].Event.EventType)

	one, err := d.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
