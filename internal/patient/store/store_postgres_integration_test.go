//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"patientcore/internal/patient/models"
	"patientcore/internal/patient/store"
	id "patientcore/pkg/domain"
	"patientcore/pkg/platform/sentinel"
	"patientcore/pkg/requestcontext"
	"patientcore/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "patients"))
}

func newDraft(email string) models.Draft {
	return models.Draft{
		Name:        "Test Patient",
		Email:       email,
		Address:     "1 Main St",
		DateOfBirth: time.Date(1985, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	created, err := s.store.Create(s.ctx, newDraft("Pat@Example.com"))
	s.Require().NoError(err)
	s.Equal("pat@example.com", created.Email)
	s.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), created.RegisteredDate)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Equal(created.DateOfBirth, found.DateOfBirth)

	_, err = s.store.FindByID(s.ctx, id.NewPatientID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentSameEmail verifies that concurrent creates with one email
// result in exactly one row.
func (s *PostgresStoreSuite) TestConcurrentSameEmail() {
	const goroutines = 50
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Create(s.ctx, newDraft("dup@example.com"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict error")

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresStoreSuite) TestUpdate() {
	a, err := s.store.Create(s.ctx, newDraft("a@example.com"))
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, newDraft("b@example.com"))
	s.Require().NoError(err)

	name := "Renamed"
	updated, changed, err := s.store.Update(s.ctx, a.ID, models.Patch{Name: &name})
	s.Require().NoError(err)
	s.True(changed)
	s.Equal("Renamed", updated.Name)
	s.Equal(a.Version+1, updated.Version)

	taken := "B@example.com"
	_, _, err = s.store.Update(s.ctx, a.ID, models.Patch{Email: &taken})
	s.ErrorIs(err, sentinel.ErrConflict)

	unchanged, changed, err := s.store.Update(s.ctx, a.ID, models.Patch{Name: &name})
	s.Require().NoError(err)
	s.False(changed)
	s.Equal(updated.Version, unchanged.Version)

	_, _, err = s.store.Update(s.ctx, id.NewPatientID(), models.Patch{Name: &name})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDelete() {
	p, err := s.store.Create(s.ctx, newDraft("gone@example.com"))
	s.Require().NoError(err)

	deleted, err := s.store.Delete(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Email, deleted.Email)

	_, err = s.store.Delete(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.Create(ctx, newDraft("tx@example.com")); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}
