package e2e

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "pretty",
	FeatureContents: []godog.Feature{
		{Name: "gateway.feature", Contents: []byte(gatewayFeature)},
	},
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

func TestFeatures(t *testing.T) {
	flag.Parse()
	opts.TestingT = t

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options:             &opts,
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	var tc *TestContext

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		var err error
		tc, err = NewTestContext()
		return ctx, err
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if err != nil && tc != nil {
			fmt.Printf("Scenario failed: %s\nLast Response: %s\n", sc.Name, string(tc.LastResponseBody))
		}
		if tc != nil {
			tc.Close()
		}
		return ctx, nil
	})

	RegisterSteps(sc, func() *TestContext { return tc })
}

const gatewayFeature = `
Feature: Deep-link authentication gateway
  Externally supplied URLs may only establish a session after structural
  validation, CSRF state-token validation, and flow-type checks all pass.

  Background:
    Given the gateway is running

  Scenario: Confirmation deep link establishes a session
    Given an account "user@example.com" with password "correct horse battery"
    When I open the confirmation deep link for "user@example.com"
    Then the response status should be 200
    And the deep link outcome should be "complete"

  Scenario: Recovery deep link enters the awaiting-new-password sub-mode
    Given an account "user@example.com" with password "correct horse battery"
    And password recovery is requested for "user@example.com"
    When I open the recovery deep link for "user@example.com" with type "recovery"
    Then the response status should be 200
    And the deep link outcome should be "complete"
    And the outcome should be awaiting a new password

  Scenario: Recovery deep link with a wrong type fails closed
    Given an account "user@example.com" with password "correct horse battery"
    And password recovery is requested for "user@example.com"
    When I open the recovery deep link for "user@example.com" with type "reco-very"
    Then the response status should be 401
    And the deep link outcome should be "failed"

  Scenario: A consumed deep link cannot be replayed
    Given an account "user@example.com" with password "correct horse battery"
    When I open the confirmation deep link for "user@example.com"
    And I open the same deep link again
    Then the response status should be 401
    And the deep link outcome should be "failed"

  Scenario: A spoofed host is rejected without echoing the URL
    Given an account "user@example.com" with password "correct horse battery"
    When I open a deep link to host "evil.example" carrying the state token
    Then the response status should be 401
    And the deep link outcome should be "failed"
    And the response should not mention "evil.example"
    And the response should not mention "INVALID_HOST"

  Scenario: Repeated sign-in failures lock the account identifier
    Given an account "user@example.com" with password "correct horse battery"
    When I fail to sign in as "user@example.com" 5 times
    And I sign in as "user@example.com" with password "correct horse battery"
    Then the response status should be 429
    And the response should carry a retry delay

  Scenario: A successful sign-in clears prior failures
    Given an account "user@example.com" with password "correct horse battery"
    When I fail to sign in as "user@example.com" 3 times
    And I sign in as "user@example.com" with password "correct horse battery"
    Then the response status should be 200
`
