// Package validation enforces patient payload invariants before any side
// effect happens. Create mode requires every field; update mode accepts any
// subset but re-checks each supplied field with the same rules.
package validation

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"patientcore/internal/patient/models"
	dErrors "patientcore/pkg/domain-errors"
)

// Mode selects the rule set.
type Mode string

const (
	ModeCreate Mode = "CREATE"
	ModeUpdate Mode = "UPDATE"
)

const (
	maxNameLength    = 100
	maxEmailLength   = 254
	maxAddressLength = 255
)

const (
	msgRequired    = "is required"
	msgBlank       = "must not be blank"
	msgTooLong     = "is too long"
	msgEmail       = "must be a valid email address"
	msgDate        = "must be a date in YYYY-MM-DD format"
	msgFutureBirth = "must be in the past"
)

// Result holds the validated output for the selected mode.
type Result struct {
	Draft models.Draft
	Patch models.Patch
}

// Validator checks PatientRequest payloads. The zero value uses time.Now.
type Validator struct {
	now func() time.Time
}

// New returns a Validator using clock for date-of-birth checks.
func New(clock func() time.Time) *Validator {
	return &Validator{now: clock}
}

func (v *Validator) clock() time.Time {
	if v == nil || v.now == nil {
		return time.Now()
	}
	return v.now()
}

// Validate applies the rule set for mode and returns every violation at once
// as a single validation error.
func (v *Validator) Validate(mode Mode, req models.PatientRequest) (Result, error) {
	var (
		res        Result
		violations []dErrors.FieldError
	)
	switch mode {
	case ModeCreate:
		res.Draft, violations = v.ValidateCreate(req)
	case ModeUpdate:
		res.Patch, violations = v.ValidateUpdate(req)
	default:
		return Result{}, dErrors.New(dErrors.CodeInternal, "unknown validation mode "+string(mode))
	}
	if len(violations) > 0 {
		return Result{}, dErrors.NewValidation("invalid patient payload", violations)
	}
	return res, nil
}

// ValidateCreate requires all fields.
func (v *Validator) ValidateCreate(req models.PatientRequest) (models.Draft, []dErrors.FieldError) {
	c := &collector{}
	draft := models.Draft{}

	if c.require("name", req.Name) {
		draft.Name = c.text("name", *req.Name, maxNameLength)
	}
	if c.require("email", req.Email) {
		draft.Email = c.email(*req.Email)
	}
	if c.require("address", req.Address) {
		draft.Address = c.text("address", *req.Address, maxAddressLength)
	}
	if c.require("date_of_birth", req.DateOfBirth) {
		draft.DateOfBirth = c.birthDate(*req.DateOfBirth, v.clock())
	}
	return draft, c.violations
}

// ValidateUpdate checks only supplied fields. An empty request is valid.
func (v *Validator) ValidateUpdate(req models.PatientRequest) (models.Patch, []dErrors.FieldError) {
	c := &collector{}
	patch := models.Patch{}

	if req.Name != nil {
		name := c.text("name", *req.Name, maxNameLength)
		patch.Name = &name
	}
	if req.Email != nil {
		email := c.email(*req.Email)
		patch.Email = &email
	}
	if req.Address != nil {
		addr := c.text("address", *req.Address, maxAddressLength)
		patch.Address = &addr
	}
	if req.DateOfBirth != nil {
		dob := c.birthDate(*req.DateOfBirth, v.clock())
		patch.DateOfBirth = &dob
	}
	if len(c.violations) > 0 {
		return models.Patch{}, c.violations
	}
	return patch, nil
}

type collector struct {
	violations []dErrors.FieldError
}

func (c *collector) add(field, msg string) {
	c.violations = append(c.violations, dErrors.FieldError{Field: field, Message: msg})
}

func (c *collector) require(field string, value *string) bool {
	if value == nil {
		c.add(field, msgRequired)
		return false
	}
	return true
}

func (c *collector) text(field, raw string, maxLen int) string {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		c.add(field, msgBlank)
	case utf8.RuneCountInString(value) > maxLen:
		c.add(field, msgTooLong)
	}
	return value
}

func (c *collector) email(raw string) string {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		c.add("email", msgBlank)
	case len(value) > maxEmailLength:
		c.add("email", msgTooLong)
	case !validEmail(value):
		c.add("email", msgEmail)
	}
	return models.NormalizeEmail(value)
}

func (c *collector) birthDate(raw string, now time.Time) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		c.add("date_of_birth", msgBlank)
		return time.Time{}
	}
	dob, err := time.Parse(models.DateLayout, value)
	if err != nil {
		c.add("date_of_birth", msgDate)
		return time.Time{}
	}
	if !dob.Before(models.DateOnly(now)) {
		c.add("date_of_birth", msgFutureBirth)
	}
	return dob
}

// validEmail accepts a bare addr-spec with a dotted domain. Display names
// ("Jane <jane@x.com>") are rejected.
func validEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(value, '@')
	if at <= 0 || at == len(value)-1 {
		return false
	}
	domain := value[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
