package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientcore/internal/patient/models"
	"patientcore/internal/patient/service"
	"patientcore/internal/patient/store"
	"patientcore/pkg/platform/sentinel"
	"patientcore/pkg/testutil"
)

type fakeBilling struct {
	err error
}

func (f *fakeBilling) CreateAccount(_ context.Context, p models.Patient) (models.BillingAccount, error) {
	if f.err != nil {
		return models.BillingAccount{}, f.err
	}
	return models.BillingAccount{AccountID: "acct-" + p.ID.String()[:8], Status: "CREATED"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.PatientEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev models.PatientEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

func newPatientRouter(t *testing.T, billing *fakeBilling) (http.Handler, *recordingPublisher) {
	t.Helper()
	events := &recordingPublisher{}
	svc, err := service.New(store.NewInMemory(), billing, events)
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, nil).Register(r)
	return r, events
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(h, testutil.NewJSONRequest(t, method, path, body))
}

var janePayload = map[string]string{
	"name":          "Jane Doe",
	"email":         "Jane@X.com",
	"address":       "1 Main St",
	"date_of_birth": "1990-01-01",
}

func createJane(t *testing.T, h http.Handler) CreateResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/patients", janePayload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return *testutil.UnmarshalResponse[CreateResponse](t, rec)
}

func TestCreatePatient(t *testing.T) {
	t.Run("creates and provisions billing", func(t *testing.T) {
		h, events := newPatientRouter(t, &fakeBilling{})
		resp := createJane(t, h)

		assert.Equal(t, "DONE", resp.State)
		assert.Equal(t, "jane@x.com", resp.Patient.Email)
		assert.Equal(t, "1990-01-01", resp.Patient.DateOfBirth)
		assert.Equal(t, "PROVISIONED", resp.Billing.Status)
		assert.NotEmpty(t, resp.Billing.AccountID)
		assert.False(t, resp.Billing.Degraded)
		assert.Equal(t, []models.EventType{models.EventCreated}, events.types())
	})

	t.Run("billing outage still answers 201 with a warning", func(t *testing.T) {
		h, events := newPatientRouter(t, &fakeBilling{err: fmt.Errorf("down: %w", sentinel.ErrUnavailable)})
		resp := createJane(t, h)

		assert.Equal(t, "DONE_WITH_BILLING_WARNING", resp.State)
		assert.True(t, resp.Billing.Degraded)
		assert.Equal(t, "UNAVAILABLE", resp.Billing.Status)
		assert.Empty(t, resp.Billing.AccountID)
		assert.Len(t, events.types(), 1)

		get := do(t, h, http.MethodGet, "/patients/"+resp.Patient.ID, nil)
		assert.Equal(t, http.StatusOK, get.Code, "patient must survive a billing outage")
	})

	t.Run("duplicate email is 409 and publishes once", func(t *testing.T) {
		h, events := newPatientRouter(t, &fakeBilling{})
		createJane(t, h)

		dup := map[string]string{}
		for k, v := range janePayload {
			dup[k] = v
		}
		dup["email"] = "JANE@x.com"
		rec := do(t, h, http.MethodPost, "/patients", dup)
		testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
		assert.Len(t, events.types(), 1)
	})

	t.Run("invalid fields are 422 with field list", func(t *testing.T) {
		h, events := newPatientRouter(t, &fakeBilling{})
		rec := do(t, h, http.MethodPost, "/patients", map[string]string{"name": "Jane"})
		body := testutil.AssertStatusAndError(t, rec, http.StatusUnprocessableEntity, "validation")
		assert.Len(t, body.Fields, 3)
		assert.Empty(t, events.types())
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		h, _ := newPatientRouter(t, &fakeBilling{})
		req := httptest.NewRequest(http.MethodPost, "/patients", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateAndDeletePatient(t *testing.T) {
	h, events := newPatientRouter(t, &fakeBilling{})
	created := createJane(t, h)
	path := "/patients/" + created.Patient.ID

	rec := do(t, h, http.MethodPut, path, map[string]string{"address": "2 Side St"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := testutil.UnmarshalResponse[PatientResponse](t, rec)
	assert.Equal(t, "2 Side St", updated.Address)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, created.Patient.Version+1, updated.Version)

	rec = do(t, h, http.MethodPatch, path, map[string]string{})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPatch, path, map[string]string{"address": "2 Side St"})
	require.Equal(t, http.StatusOK, rec.Code)
	same := testutil.UnmarshalResponse[PatientResponse](t, rec)
	assert.Equal(t, updated.Version, same.Version, "identical patch keeps the version")

	rec = do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []models.EventType{models.EventCreated, models.EventUpdated, models.EventDeleted}, events.types())
}

func TestPatientIDValidation(t *testing.T) {
	h, _ := newPatientRouter(t, &fakeBilling{})

	rec := do(t, h, http.MethodGet, "/patients/not-a-uuid", nil)
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")

	rec = do(t, h, http.MethodGet, "/patients/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPatients(t *testing.T) {
	h, _ := newPatientRouter(t, &fakeBilling{})
	createJane(t, h)

	rec := do(t, h, http.MethodGet, "/patients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.UnmarshalResponse[ListResponse](t, rec)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "jane@x.com", list.Patients[0].Email)
}
