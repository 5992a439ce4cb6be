package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	ResponseField(path string) (any, error)
	Save(name, value string)
	Expand(s string) string
}

// RegisterSteps registers patient lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &patientSteps{tc: tc}
	ctx.Step(`^a unique email "([^"]*)"$`, steps.uniqueEmail)
	ctx.Step(`^I register patient "([^"]*)" with email "([^"]*)"$`, steps.register)
	ctx.Step(`^I register patient "([^"]*)" with email "([^"]*)" born "([^"]*)"$`, steps.registerBorn)
	ctx.Step(`^I save the patient id as "([^"]*)"$`, steps.savePatientID)
	ctx.Step(`^I change the address of "([^"]*)" to "([^"]*)"$`, steps.changeAddress)
}

type patientSteps struct {
	tc TestContext
}

// uniqueEmail saves an address that cannot collide with earlier runs.
func (s *patientSteps) uniqueEmail(_ context.Context, name string) error {
	s.tc.Save(name, fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano()))
	return nil
}

func (s *patientSteps) register(ctx context.Context, name, email string) error {
	return s.registerBorn(ctx, name, email, "1985-06-15")
}

func (s *patientSteps) registerBorn(_ context.Context, name, email, born string) error {
	return s.tc.POST("/patients", map[string]string{
		"name":          name,
		"email":         s.tc.Expand(email),
		"address":       "1 Main St",
		"date_of_birth": born,
	})
}

func (s *patientSteps) savePatientID(_ context.Context, as string) error {
	v, err := s.tc.ResponseField("patient.id")
	if err != nil {
		return err
	}
	s.tc.Save(as, fmt.Sprint(v))
	return nil
}

func (s *patientSteps) changeAddress(_ context.Context, ref, address string) error {
	return s.tc.PUT("/patients/{"+ref+"}", map[string]string{"address": address})
}
