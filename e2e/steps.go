package e2e

import (
	"github.com/cucumber/godog"

	"patientcore/e2e/steps/common"
	"patientcore/e2e/steps/patient"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	patient.RegisterSteps(ctx, tc)
}
