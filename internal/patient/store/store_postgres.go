package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
	dErrors "patientcore/pkg/domain-errors"
	"patientcore/pkg/platform/sentinel"
	txcontext "patientcore/pkg/platform/tx"
	"patientcore/pkg/requestcontext"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	defaultTxTimeout = 5 * time.Second

	pqUniqueViolation  = "23505"
	emailConstraintKey = "patients_email_key"
)

// Schema creates the patients table. The unique index on lower(email) is the
// only thing that makes concurrent same-email creates safe.
const Schema = `
CREATE TABLE IF NOT EXISTS patients (
	id              UUID PRIMARY KEY,
	name            TEXT NOT NULL,
	email           TEXT NOT NULL,
	address         TEXT NOT NULL,
	date_of_birth   DATE NOT NULL,
	registered_date DATE NOT NULL,
	version         BIGINT NOT NULL DEFAULT 1,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS patients_email_key ON patients (lower(email));
`

const patientColumns = `id, name, email, address, date_of_birth, registered_date, version, updated_at`

// PostgresStore persists patients in PostgreSQL. Each mutation runs in its own
// transaction unless the caller already placed one in the context.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

type Option func(*PostgresStore)

// WithTxTimeout bounds transactions started without a caller deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *PostgresStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate applies Schema. It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate patients schema: %w", err)
	}
	return nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// RunInTx executes fn inside a transaction carried on the context. Nested
// calls reuse the outer transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, draft models.Draft) (*models.Patient, error) {
	now := requestcontext.Now(ctx)
	var created *models.Patient
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		row := s.conn(ctx).QueryRowContext(ctx, `
			INSERT INTO patients (id, name, email, address, date_of_birth, registered_date, version, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
			RETURNING `+patientColumns,
			uuid.UUID(id.NewPatientID()),
			draft.Name,
			models.NormalizeEmail(draft.Email),
			draft.Address,
			models.DateOnly(draft.DateOfBirth),
			models.DateOnly(now),
			now.UTC(),
		)
		p, err := scanPatient(row)
		if err != nil {
			return translate(err, "insert patient")
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update reads the current row under FOR UPDATE, overlays the patch and
// writes it back guarded by the version it read.
func (s *PostgresStore) Update(ctx context.Context, patientID id.PatientID, patch models.Patch) (*models.Patient, bool, error) {
	now := requestcontext.Now(ctx)
	var (
		result  *models.Patient
		changed bool
	)
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		current, err := scanPatient(s.conn(ctx).QueryRowContext(ctx,
			`SELECT `+patientColumns+` FROM patients WHERE id = $1 FOR UPDATE`,
			uuid.UUID(patientID),
		))
		if err != nil {
			return translate(err, "load patient for update")
		}
		updated, differs := patch.Apply(*current)
		if !differs {
			result = current
			return nil
		}
		row := s.conn(ctx).QueryRowContext(ctx, `
			UPDATE patients
			SET name = $3, email = $4, address = $5, date_of_birth = $6,
			    version = version + 1, updated_at = $7
			WHERE id = $1 AND version = $2
			RETURNING `+patientColumns,
			uuid.UUID(patientID),
			current.Version,
			updated.Name,
			models.NormalizeEmail(updated.Email),
			updated.Address,
			models.DateOnly(updated.DateOfBirth),
			now.UTC(),
		)
		p, err := scanPatient(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStaleVersion
		}
		if err != nil {
			return translate(err, "update patient")
		}
		result = p
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (s *PostgresStore) Delete(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	var deleted *models.Patient
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		p, err := scanPatient(s.conn(ctx).QueryRowContext(ctx,
			`DELETE FROM patients WHERE id = $1 RETURNING `+patientColumns,
			uuid.UUID(patientID),
		))
		if err != nil {
			return translate(err, "delete patient")
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	p, err := scanPatient(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`,
		uuid.UUID(patientID),
	))
	if err != nil {
		return nil, translate(err, "find patient by id")
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Patient, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+patientColumns+` FROM patients ORDER BY registered_date, name, id`)
	if err != nil {
		return nil, translate(err, "list patients")
	}
	defer rows.Close()

	var out []*models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, translate(err, "scan patient")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate patients")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var (
		p       models.Patient
		rawID   uuid.UUID
		dob     time.Time
		regDate time.Time
	)
	if err := row.Scan(&rawID, &p.Name, &p.Email, &p.Address, &dob, &regDate, &p.Version, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PatientID(rawID)
	p.DateOfBirth = models.DateOnly(dob)
	p.RegisteredDate = models.DateOnly(regDate)
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// translate maps driver errors onto store sentinels. Anything that is not a
// known outcome keeps its cause and is treated as transient by callers.
func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		if pqErr.Constraint == emailConstraintKey || pqErr.Constraint == "" {
			return ErrEmailTaken
		}
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
