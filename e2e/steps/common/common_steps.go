package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	DELETE(path string) error
	LastStatus() int
	ResponseField(path string) (any, error)
}

// RegisterSteps registers generic request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}
	ctx.Step(`^the service is healthy$`, steps.serviceHealthy)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.boolFieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceHealthy(ctx context.Context) error {
	if err := s.tc.GET("/health"); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) get(_ context.Context, path string) error    { return s.tc.GET(path) }
func (s *commonSteps) delete(_ context.Context, path string) error { return s.tc.DELETE(path) }

func (s *commonSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(_ context.Context, field, want string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) boolFieldShouldBe(_ context.Context, field, want string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	b, ok := v.(bool)
	if !ok || fmt.Sprint(b) != want {
		return fmt.Errorf("expected %s=%s, got %v", field, want, v)
	}
	return nil
}
