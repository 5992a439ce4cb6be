package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"patientcore/internal/patient/models"
	"patientcore/pkg/platform/sentinel"
)

const projectionSchema = `
CREATE TABLE IF NOT EXISTS patient_events (
	event_id    UUID PRIMARY KEY,
	patient_id  UUID NOT NULL,
	event_type  TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	received_at TIMESTAMPTZ NOT NULL,
	partition   INTEGER NOT NULL,
	"offset"    BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS patient_events_patient_idx ON patient_events (patient_id, occurred_at);
`

// PostgresProjection persists records through a pgx pool.
type PostgresProjection struct {
	pool *pgxpool.Pool
}

func NewPostgresProjection(pool *pgxpool.Pool) *PostgresProjection {
	return &PostgresProjection{pool: pool}
}

// Migrate creates the projection table if needed.
func (p *PostgresProjection) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, projectionSchema); err != nil {
		return fmt.Errorf("migrate analytics projection: %w", err)
	}
	return nil
}

func (p *PostgresProjection) Append(ctx context.Context, rec Record) (bool, error) {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO patient_events (event_id, patient_id, event_type, occurred_at, received_at, partition, "offset")
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING`,
		rec.EventID.String(), rec.PatientID.String(), string(rec.EventType),
		rec.OccurredAt, rec.ReceivedAt, rec.Partition, rec.Offset,
	)
	if err != nil {
		return false, fmt.Errorf("append patient event: %w: %w", sentinel.ErrUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *PostgresProjection) Counts(ctx context.Context) (map[models.EventType]int64, error) {
	rows, err := p.pool.Query(ctx, `SELECT event_type, COUNT(*) FROM patient_events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("count patient events: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	out := make(map[models.EventType]int64)
	for rows.Next() {
		var (
			eventType string
			n         int64
		)
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		out[models.EventType(eventType)] = n
	}
	return out, rows.Err()
}
