package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	callbacksvc "linkgate/internal/callback/service"
	"linkgate/internal/deeplink"
	"linkgate/internal/provider/devstub"
	"linkgate/internal/ratelimit/service/authlimit"
	attemptstore "linkgate/internal/ratelimit/store/authlimit"
	"linkgate/internal/statetoken"
	httptransport "linkgate/internal/transport/http"
)

// TestContext holds state between test steps. Each scenario gets a fresh
// gateway wired exactly like main, minus metrics (the default registry is
// global and scenarios would collide).
type TestContext struct {
	Server     *httptest.Server
	HTTPClient *http.Client
	Provider   *devstub.Provider

	LastResponse     *http.Response
	LastResponseBody []byte

	// State is the most recently issued CSRF state token, captured from
	// signup/recover responses.
	State string
}

// NewTestContext wires an in-process gateway and returns a context bound to it.
func NewTestContext() (*TestContext, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := statetoken.New(statetoken.NewInMemoryStore(), statetoken.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	provider, err := devstub.New([]byte("e2e-signing-secret"), devstub.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	limiter, err := authlimit.New(attemptstore.New(), authlimit.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	callbacks, err := callbacksvc.New(deeplink.NewValidator(), tokens, provider, callbacksvc.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	handler := httptransport.NewHandler(callbacks, tokens, limiter, provider, logger)
	router := httptransport.NewRouter(handler, logger)

	return &TestContext{
		Server:     httptest.NewServer(router),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Provider:   provider,
	}, nil
}

// Close shuts the in-process gateway down.
func (tc *TestContext) Close() {
	if tc.Server != nil {
		tc.Server.Close()
	}
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tc.Server.URL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close() //nolint:errcheck // response body already consumed
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a top-level field from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &body); err != nil {
		return nil, fmt.Errorf("failed to parse response body: %w", err)
	}
	value, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q not present in response: %s", field, string(tc.LastResponseBody))
	}
	return value, nil
}
