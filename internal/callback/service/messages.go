package service

import (
	"strings"

	"linkgate/internal/deeplink"
)

// The only strings a failed authentication pass may show an end user. Every
// reason code maps onto one of these; the mapping is deliberately coarse and
// never includes the reason code's name, the offending value, or any
// structural detail.
const (
	msgInvalidRequest   = "Invalid authentication request. Please request a new link."
	msgInvalidOrExpired = "Invalid or expired authentication request. Please request a new link."
	msgInvalidReset     = "Invalid password reset link. Please request a new link."

	msgProviderDefault = "Unable to complete authentication. Please try again."
)

func userMessageForReason(reason deeplink.ReasonCode) string {
	switch reason {
	case deeplink.ReasonMissingStateToken, deeplink.ReasonInvalidStateToken:
		return msgInvalidOrExpired
	case deeplink.ReasonInvalidTypeParam:
		return msgInvalidReset
	default:
		return msgInvalidRequest
	}
}

// providerMessagePattern maps a lowercase substring of a provider error to a
// friendlier sentence. Matching is best effort; anything unmatched falls back
// to msgProviderDefault.
type providerMessagePattern struct {
	fragment string
	message  string
}

var providerMessagePatterns = []providerMessagePattern{
	{"network", "Could not reach the authentication service. Check your connection and try again."},
	{"timeout", "Could not reach the authentication service. Check your connection and try again."},
	{"expired", "Your sign-in link has expired. Please request a new link."},
	{"invalid token", "Your sign-in link is no longer valid. Please request a new link."},
	{"rate", "Too many attempts. Please wait a moment and try again."},
}

func userMessageForProviderError(err error) string {
	if err == nil {
		return msgProviderDefault
	}
	lowered := strings.ToLower(err.Error())
	for _, p := range providerMessagePatterns {
		if strings.Contains(lowered, p.fragment) {
			return p.message
		}
	}
	return msgProviderDefault
}
