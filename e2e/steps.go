package e2e

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cucumber/godog"

	"linkgate/internal/deeplink"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc func() *TestContext) {
	steps := &gatewaySteps{tc: tc}

	ctx.Step(`^the gateway is running$`, steps.gatewayIsRunning)
	ctx.Step(`^an account "([^"]*)" with password "([^"]*)"$`, steps.createAccount)
	ctx.Step(`^password recovery is requested for "([^"]*)"$`, steps.requestRecovery)

	ctx.Step(`^I open the confirmation deep link for "([^"]*)"$`, steps.openConfirmationLink)
	ctx.Step(`^I open the recovery deep link for "([^"]*)" with type "([^"]*)"$`, steps.openRecoveryLink)
	ctx.Step(`^I open the same deep link again$`, steps.openSameLinkAgain)
	ctx.Step(`^I open a deep link to host "([^"]*)" carrying the state token$`, steps.openLinkToHost)
	ctx.Step(`^I fail to sign in as "([^"]*)" (\d+) times$`, steps.failSignInTimes)
	ctx.Step(`^I sign in as "([^"]*)" with password "([^"]*)"$`, steps.signIn)

	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the deep link outcome should be "([^"]*)"$`, steps.outcomeShouldBe)
	ctx.Step(`^the outcome should be awaiting a new password$`, steps.outcomeAwaitingNewPassword)
	ctx.Step(`^the response should not mention "([^"]*)"$`, steps.responseShouldNotMention)
	ctx.Step(`^the response should carry a retry delay$`, steps.responseShouldCarryRetryDelay)
}

type gatewaySteps struct {
	tc       func() *TestContext
	lastLink string
}

func (s *gatewaySteps) gatewayIsRunning(_ context.Context) error {
	if s.tc() == nil {
		return fmt.Errorf("gateway not wired")
	}
	s.lastLink = ""
	return nil
}

func (s *gatewaySteps) createAccount(_ context.Context, email, password string) error {
	tc := s.tc()
	if err := tc.POST("/auth/signup", map[string]string{"email": email, "password": password}); err != nil {
		return err
	}
	if tc.LastResponse.StatusCode != 201 {
		return fmt.Errorf("signup failed with status %d: %s", tc.LastResponse.StatusCode, string(tc.LastResponseBody))
	}
	return s.captureState()
}

func (s *gatewaySteps) requestRecovery(_ context.Context, email string) error {
	tc := s.tc()
	if err := tc.POST("/auth/recover", map[string]string{"email": email}); err != nil {
		return err
	}
	if tc.LastResponse.StatusCode != 202 {
		return fmt.Errorf("recover failed with status %d: %s", tc.LastResponse.StatusCode, string(tc.LastResponseBody))
	}
	return s.captureState()
}

func (s *gatewaySteps) captureState() error {
	state, err := s.tc().GetResponseField("state")
	if err != nil {
		return err
	}
	value, ok := state.(string)
	if !ok || value == "" {
		return fmt.Errorf("state token missing from response")
	}
	s.tc().State = value
	return nil
}

func (s *gatewaySteps) buildLink(email, path string, extra url.Values) (string, error) {
	tc := s.tc()
	access, refresh, err := tc.Provider.IssueTokens(context.Background(), email)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set(deeplink.ParamAccessToken, access)
	query.Set(deeplink.ParamRefreshToken, refresh)
	query.Set(deeplink.ParamState, tc.State)
	for key, values := range extra {
		for _, value := range values {
			query.Set(key, value)
		}
	}
	return fmt.Sprintf("%s://%s%s?%s", deeplink.Scheme, deeplink.Host, path, query.Encode()), nil
}

func (s *gatewaySteps) openLink(link string) error {
	s.lastLink = link
	return s.tc().POST("/deeplink/open", map[string]any{"urls": []string{link}})
}

func (s *gatewaySteps) openConfirmationLink(_ context.Context, email string) error {
	link, err := s.buildLink(email, deeplink.PathSessionCallback, nil)
	if err != nil {
		return err
	}
	return s.openLink(link)
}

func (s *gatewaySteps) openRecoveryLink(_ context.Context, email, typeValue string) error {
	extra := url.Values{}
	extra.Set(deeplink.ParamType, typeValue)
	link, err := s.buildLink(email, deeplink.PathPasswordRecovery, extra)
	if err != nil {
		return err
	}
	return s.openLink(link)
}

func (s *gatewaySteps) openSameLinkAgain(_ context.Context) error {
	if s.lastLink == "" {
		return fmt.Errorf("no previous deep link in this scenario")
	}
	return s.tc().POST("/deeplink/open", map[string]any{"urls": []string{s.lastLink}})
}

func (s *gatewaySteps) openLinkToHost(_ context.Context, host string) error {
	link := fmt.Sprintf("%s://%s%s?access_token=a&refresh_token=b&state=%s",
		deeplink.Scheme, host, deeplink.PathSessionCallback, s.tc().State)
	return s.openLink(link)
}

func (s *gatewaySteps) failSignInTimes(_ context.Context, email string, times int) error {
	tc := s.tc()
	for i := 0; i < times; i++ {
		err := tc.POST("/auth/signin", map[string]string{
			"email":    email,
			"password": fmt.Sprintf("definitely wrong %d", i),
		})
		if err != nil {
			return err
		}
		if tc.LastResponse.StatusCode != 401 {
			return fmt.Errorf("attempt %d: expected 401, got %d", i+1, tc.LastResponse.StatusCode)
		}
	}
	return nil
}

func (s *gatewaySteps) signIn(_ context.Context, email, password string) error {
	return s.tc().POST("/auth/signin", map[string]string{"email": email, "password": password})
}

func (s *gatewaySteps) responseStatusShouldBe(_ context.Context, status int) error {
	got := s.tc().LastResponse.StatusCode
	if got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, string(s.tc().LastResponseBody))
	}
	return nil
}

func (s *gatewaySteps) outcomeShouldBe(_ context.Context, want string) error {
	value, err := s.tc().GetResponseField("status")
	if err != nil {
		return err
	}
	if value != want {
		return fmt.Errorf("expected outcome %q, got %v", want, value)
	}
	return nil
}

func (s *gatewaySteps) outcomeAwaitingNewPassword(_ context.Context) error {
	value, err := s.tc().GetResponseField("awaiting_new_password")
	if err != nil {
		return err
	}
	if value != true {
		return fmt.Errorf("expected awaiting_new_password to be true, got %v", value)
	}
	return nil
}

func (s *gatewaySteps) responseShouldNotMention(_ context.Context, fragment string) error {
	if strings.Contains(string(s.tc().LastResponseBody), fragment) {
		return fmt.Errorf("response leaked %q: %s", fragment, string(s.tc().LastResponseBody))
	}
	return nil
}

func (s *gatewaySteps) responseShouldCarryRetryDelay(_ context.Context) error {
	value, err := s.tc().GetResponseField("retry_after_ms")
	if err != nil {
		return err
	}
	ms, ok := value.(float64)
	if !ok || ms <= 0 {
		return fmt.Errorf("expected positive retry_after_ms, got %v", value)
	}
	return nil
}
