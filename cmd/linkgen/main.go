// Package main provides a CLI tool for generating working deep links against
// a locally running gateway. The links use the dev signing secret and will
// NOT work against anything but the dev stub provider.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"linkgate/internal/deeplink"
	"linkgate/internal/provider/devstub"
	"linkgate/internal/statetoken"
)

const (
	// Dev signing secret - matches config.go when LINKGATE_DEV_SECRET is not set
	devSigningSecret = "linkgate-dev-signing-secret"

	defaultEmail    = "dev@example.com"
	defaultPassword = "dev-password-123"
)

type linkOutput struct {
	URL   string `json:"url"`
	State string `json:"state"`
	Flow  string `json:"flow"`
	Usage string `json:"usage"`
}

func main() {
	flow := flag.String("flow", "callback", "Flow to generate a link for: callback or recovery")
	email := flag.String("email", defaultEmail, "Account email (registered in the stub on the fly)")
	password := flag.String("password", defaultPassword, "Account password")
	ttl := flag.Duration("ttl", time.Hour, "Access token time-to-live")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	ctx := context.Background()

	provider, err := devstub.New([]byte(devSigningSecret), devstub.WithAccessTTL(*ttl))
	if err != nil {
		fatal(err)
	}
	if _, err := provider.SignUp(ctx, *email, *password); err != nil {
		fatal(err)
	}
	access, refresh, err := provider.IssueTokens(ctx, *email)
	if err != nil {
		fatal(err)
	}

	state, err := statetoken.Generate()
	if err != nil {
		fatal(err)
	}

	var path string
	query := url.Values{}
	query.Set(deeplink.ParamAccessToken, access)
	query.Set(deeplink.ParamRefreshToken, refresh)
	query.Set(deeplink.ParamState, state)

	switch *flow {
	case "callback":
		path = deeplink.PathSessionCallback
	case "recovery":
		path = deeplink.PathPasswordRecovery
		query.Set(deeplink.ParamType, deeplink.TypeRecovery)
	default:
		fmt.Fprintf(os.Stderr, "unknown flow %q: want callback or recovery\n", *flow)
		os.Exit(1)
	}

	link := fmt.Sprintf("%s://%s%s?%s", deeplink.Scheme, deeplink.Host, path, query.Encode())

	out := linkOutput{
		URL:   link,
		State: state,
		Flow:  *flow,
		Usage: "store the state via the gateway first (signup/recover return the live one), or POST the url to /deeplink/open after seeding this state",
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fatal(err)
		}
		return
	}

	fmt.Println("Deep link:")
	fmt.Println("  " + out.URL)
	fmt.Println()
	fmt.Println("State token (must be the stored slot value for validation to pass):")
	fmt.Println("  " + out.State)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
