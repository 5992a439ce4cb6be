package store

import (
	"context"
	"sort"
	"sync"

	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
	"patientcore/pkg/platform/sentinel"
	"patientcore/pkg/requestcontext"
)

// InMemory keeps patients in process memory. A single lock makes every
// check-and-write atomic, which is what the email uniqueness rule needs.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.PatientID]models.Patient
	byEmail map[string]id.PatientID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.PatientID]models.Patient),
		byEmail: make(map[string]id.PatientID),
	}
}

func (s *InMemory) Create(ctx context.Context, draft models.Draft) (*models.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	email := models.NormalizeEmail(draft.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, ErrEmailTaken
	}
	p := models.Patient{
		ID:             id.NewPatientID(),
		Name:           draft.Name,
		Email:          email,
		Address:        draft.Address,
		DateOfBirth:    models.DateOnly(draft.DateOfBirth),
		RegisteredDate: models.DateOnly(now),
		Version:        1,
		UpdatedAt:      now.UTC(),
	}
	s.byID[p.ID] = p
	s.byEmail[email] = p.ID
	return &p, nil
}

// Update applies patch atomically. changed is false when the patch matches
// the stored values; the version is then left alone.
func (s *InMemory) Update(ctx context.Context, patientID id.PatientID, patch models.Patch) (*models.Patient, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[patientID]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}
	updated, changed := patch.Apply(current)
	if !changed {
		return &current, false, nil
	}
	updated.Email = models.NormalizeEmail(updated.Email)
	updated.DateOfBirth = models.DateOnly(updated.DateOfBirth)
	if updated.Email != current.Email {
		if owner, taken := s.byEmail[updated.Email]; taken && owner != patientID {
			return nil, false, ErrEmailTaken
		}
		delete(s.byEmail, current.Email)
		s.byEmail[updated.Email] = patientID
	}
	updated.Version = current.Version + 1
	updated.UpdatedAt = requestcontext.Now(ctx).UTC()
	s.byID[patientID] = updated
	return &updated, true, nil
}

func (s *InMemory) Delete(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[patientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.byID, patientID)
	delete(s.byEmail, p.Email)
	return &p, nil
}

func (s *InMemory) FindByID(_ context.Context, patientID id.PatientID) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[patientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

// List returns patients ordered by registration date, then name.
func (s *InMemory) List(_ context.Context) ([]*models.Patient, error) {
	s.mu.RLock()
	out := make([]*models.Patient, 0, len(s.byID))
	for _, p := range s.byID {
		p := p
		out = append(out, &p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredDate.Equal(out[j].RegisteredDate) {
			return out[i].RegisteredDate.Before(out[j].RegisteredDate)
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
