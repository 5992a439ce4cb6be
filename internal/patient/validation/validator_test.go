package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientcore/internal/patient/models"
	dErrors "patientcore/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func newValidator() *Validator {
	return New(func() time.Time { return fixedNow })
}

func validRequest() models.PatientRequest {
	return models.PatientRequest{
		Name:        ptr("Jane Doe"),
		Email:       ptr("jane@x.com"),
		Address:     ptr("1 Main St"),
		DateOfBirth: ptr("1990-01-01"),
	}
}

func fieldNames(violations []dErrors.FieldError) []string {
	names := make([]string, 0, len(violations))
	for _, v := range violations {
		names = append(names, v.Field)
	}
	return names
}

func TestValidateCreate(t *testing.T) {
	v := newValidator()

	t.Run("accepts a complete payload", func(t *testing.T) {
		draft, violations := v.ValidateCreate(validRequest())
		require.Empty(t, violations)
		assert.Equal(t, "Jane Doe", draft.Name)
		assert.Equal(t, "jane@x.com", draft.Email)
		assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), draft.DateOfBirth)
	})

	t.Run("trims and lowercases", func(t *testing.T) {
		req := validRequest()
		req.Name = ptr("  Jane Doe ")
		req.Email = ptr(" Jane@X.com ")
		draft, violations := v.ValidateCreate(req)
		require.Empty(t, violations)
		assert.Equal(t, "Jane Doe", draft.Name)
		assert.Equal(t, "jane@x.com", draft.Email)
	})

	t.Run("reports every missing field at once", func(t *testing.T) {
		_, violations := v.ValidateCreate(models.PatientRequest{})
		assert.ElementsMatch(t, []string{"name", "email", "address", "date_of_birth"}, fieldNames(violations))
	})

	t.Run("reports every invalid field at once", func(t *testing.T) {
		req := models.PatientRequest{
			Name:        ptr("   "),
			Email:       ptr("not-an-email"),
			Address:     ptr(""),
			DateOfBirth: ptr("01/01/1990"),
		}
		_, violations := v.ValidateCreate(req)
		assert.ElementsMatch(t, []string{"name", "email", "address", "date_of_birth"}, fieldNames(violations))
	})
}

func TestValidateCreate_DateOfBirth(t *testing.T) {
	v := newValidator()
	tests := []struct {
		name  string
		dob   string
		valid bool
	}{
		{"yesterday", "2026-03-14", true},
		{"today is not past", "2026-03-15", false},
		{"future", "2030-01-01", false},
		{"impossible date", "1990-02-30", false},
		{"blank", " ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.DateOfBirth = ptr(tt.dob)
			_, violations := v.ValidateCreate(req)
			if tt.valid {
				assert.Empty(t, violations)
			} else {
				assert.Equal(t, []string{"date_of_birth"}, fieldNames(violations))
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"jane@x.com", true},
		{"jane.doe+tag@sub.example.org", true},
		{"jane@localhost", false},
		{"Jane <jane@x.com>", false},
		{"@x.com", false},
		{"jane@", false},
		{"jane@x.", false},
		{"jane x@x.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, validEmail(tt.in))
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newValidator()

	t.Run("empty payload is a valid no-op", func(t *testing.T) {
		patch, violations := v.ValidateUpdate(models.PatientRequest{})
		require.Empty(t, violations)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("re-validates supplied fields", func(t *testing.T) {
		_, violations := v.ValidateUpdate(models.PatientRequest{
			Email:       ptr("broken"),
			DateOfBirth: ptr("2999-01-01"),
		})
		assert.ElementsMatch(t, []string{"email", "date_of_birth"}, fieldNames(violations))
	})

	t.Run("partial payload yields partial patch", func(t *testing.T) {
		patch, violations := v.ValidateUpdate(models.PatientRequest{Address: ptr(" 2 High St ")})
		require.Empty(t, violations)
		require.NotNil(t, patch.Address)
		assert.Equal(t, "2 High St", *patch.Address)
		assert.Nil(t, patch.Name)
		assert.Nil(t, patch.Email)
	})
}

func TestValidate_ModeDispatch(t *testing.T) {
	v := newValidator()

	t.Run("create violations become one validation error", func(t *testing.T) {
		_, err := v.Validate(ModeCreate, models.PatientRequest{Name: ptr("Jane")})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Len(t, dErrors.FieldsOf(err), 3)
	})

	t.Run("update of valid fields passes", func(t *testing.T) {
		res, err := v.Validate(ModeUpdate, models.PatientRequest{Name: ptr("Janet")})
		require.NoError(t, err)
		require.NotNil(t, res.Patch.Name)
		assert.Equal(t, "Janet", *res.Patch.Name)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := v.Validate(Mode("DELETE"), models.PatientRequest{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("zero value validator uses wall clock", func(t *testing.T) {
		var zero *Validator
		_, err := zero.Validate(ModeCreate, validRequest())
		require.NoError(t, err)
	})
}
