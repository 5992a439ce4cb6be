package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
	"patientcore/pkg/platform/sentinel"
	"patientcore/pkg/requestcontext"
)

type PatientStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *PatientStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestPatientStoreSuite(t *testing.T) {
	suite.Run(t, new(PatientStoreSuite))
}

func draft(name, email string) models.Draft {
	return models.Draft{
		Name:        name,
		Email:       email,
		Address:     "1 Main St",
		DateOfBirth: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func strPtr(v string) *string { return &v }

func (s *PatientStoreSuite) TestCreate() {
	s.Run("assigns id, registration date and version", func() {
		p, err := s.store.Create(s.ctx, draft("Ann Lee", "Ann@Example.com"))
		s.Require().NoError(err)
		s.False(p.ID.IsNil())
		s.Equal("ann@example.com", p.Email)
		s.Equal(models.DateOnly(s.now), p.RegisteredDate)
		s.Equal(int64(1), p.Version)

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(*p, *found)
	})

	s.Run("rejects duplicate email regardless of case", func() {
		_, err := s.store.Create(s.ctx, draft("Other", "ANN@example.COM"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
		s.Require().ErrorIs(err, ErrEmailTaken)
	})

	s.Run("honours cancelled context", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		_, err := s.store.Create(ctx, draft("Late", "late@example.com"))
		s.Require().ErrorIs(err, context.Canceled)
	})
}

func (s *PatientStoreSuite) TestConcurrentSameEmail() {
	const goroutines = 50
	var wg sync.WaitGroup
	var ok, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Create(s.ctx, draft("Racer", "race@example.com"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), ok.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PatientStoreSuite) TestUpdate() {
	p, err := s.store.Create(s.ctx, draft("Ann Lee", "ann@example.com"))
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, draft("Bob Ray", "bob@example.com"))
	s.Require().NoError(err)

	s.Run("applies partial change and bumps version", func() {
		later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
		updated, changed, err := s.store.Update(later, p.ID, models.Patch{Address: strPtr("2 Side St")})
		s.Require().NoError(err)
		s.True(changed)
		s.Equal("2 Side St", updated.Address)
		s.Equal("Ann Lee", updated.Name)
		s.Equal(int64(2), updated.Version)
		s.Equal(s.now.Add(time.Hour), updated.UpdatedAt)
		s.Equal(p.RegisteredDate, updated.RegisteredDate)
	})

	s.Run("no-op patch leaves version untouched", func() {
		same, changed, err := s.store.Update(s.ctx, p.ID, models.Patch{Name: strPtr("Ann Lee")})
		s.Require().NoError(err)
		s.False(changed)
		s.Equal(int64(2), same.Version)
	})

	s.Run("email collision is a conflict", func() {
		_, _, err := s.store.Update(s.ctx, p.ID, models.Patch{Email: strPtr("BOB@example.com")})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("email change frees the old address", func() {
		_, _, err := s.store.Update(s.ctx, p.ID, models.Patch{Email: strPtr("ann.lee@example.com")})
		s.Require().NoError(err)
		_, err = s.store.Create(s.ctx, draft("New Ann", "ann@example.com"))
		s.Require().NoError(err)
	})

	s.Run("unknown id is not found", func() {
		_, _, err := s.store.Update(s.ctx, id.NewPatientID(), models.Patch{Name: strPtr("x")})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PatientStoreSuite) TestDelete() {
	p, err := s.store.Create(s.ctx, draft("Ann Lee", "ann@example.com"))
	s.Require().NoError(err)

	deleted, err := s.store.Delete(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, deleted.ID)

	_, err = s.store.FindByID(s.ctx, p.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Delete(s.ctx, p.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Create(s.ctx, draft("Ann Again", "ann@example.com"))
	s.Require().NoError(err, "email is reusable after delete")
}

func (s *PatientStoreSuite) TestListOrdering() {
	later := requestcontext.WithTime(s.ctx, s.now.AddDate(0, 0, 1))
	_, err := s.store.Create(later, draft("Zed", "zed@example.com"))
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, draft("Bea", "bea@example.com"))
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, draft("Abe", "abe@example.com"))
	s.Require().NoError(err)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"Abe", "Bea", "Zed"}, []string{all[0].Name, all[1].Name, all[2].Name})
}
