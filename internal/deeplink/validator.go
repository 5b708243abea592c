// Package deeplink classifies externally supplied custom-scheme URLs before
// they can touch session-establishment logic.
//
// Any process or webpage can invoke the application's URL scheme, so every
// input here is attacker-controllable. Validation is a pure, total function:
// parse failures are classified results, never escaping errors.
package deeplink

import (
	"fmt"
	"net/url"
	"strings"
)

// Allowlists compiled into the validator. They are deliberately not
// runtime-configurable by anything reachable from the untrusted caller.
const (
	// Scheme is the application's custom URL scheme. Compared case-insensitively,
	// per URL spec convention.
	Scheme = "todo"

	// Host is compared case-sensitively as an exact literal. The asymmetry with
	// the scheme is deliberate: case-variant hosts are treated as spoofing
	// attempts, not as equivalent names.
	Host = "auth"

	PathSessionCallback  = "/callback"
	PathPasswordRecovery = "/password-reset"

	ParamAccessToken   = "access_token"
	ParamRefreshToken  = "refresh_token"
	ParamType          = "type"
	ParamProviderToken = "provider_token"
	ParamState         = "state"

	// TypeRecovery is the only accepted value of the type discriminator on the
	// password-recovery path. Exact string match; anything else fails closed.
	TypeRecovery = "recovery"

	// MaxURLLength is inclusive: exactly 2048 characters is accepted.
	MaxURLLength = 2048
)

var allowedPaths = []string{PathSessionCallback, PathPasswordRecovery}

var allowedParams = map[string]bool{
	ParamAccessToken:   true,
	ParamRefreshToken:  true,
	ParamType:          true,
	ParamProviderToken: true,
	ParamState:         true,
}

// Result is the classification of one raw URL. It is transient and never
// persisted.
//
// Detail is a development-only diagnostic: it may echo attacker-supplied
// values (the offending host, path, or parameter name) and is stripped by the
// redacting log policy before it can reach a production sink or a user-visible
// surface.
type Result struct {
	Valid  bool
	Reason ReasonCode
	Detail string

	// Path and Params are populated only when Valid is true, so callers never
	// have to reparse an already-validated URL.
	Path   string
	Params map[string]string
}

// parsedLink is the working state shared by the ordered checks.
type parsedLink struct {
	url    *url.URL
	params []queryParam
}

type queryParam struct {
	key   string
	value string
}

// check is one named predicate in the validation sequence. Returning ok=false
// fails the whole validation with the check's reason code.
type check struct {
	name   string
	reason ReasonCode
	run    func(*parsedLink) (ok bool, detail string)
}

// Validator classifies raw deep-link URLs against the compiled allowlists.
//
// The checks run in a fixed order and the first failing check wins; the order
// is a security contract (structural checks precede anything that could leak
// which allowlist entry was closest) and is asserted by tests.
type Validator struct {
	checks []check
}

// NewValidator builds the validator with its ordered check table.
func NewValidator() *Validator {
	return &Validator{
		checks: []check{
			{name: "scheme", reason: ReasonInvalidScheme, run: checkScheme},
			{name: "host", reason: ReasonInvalidHost, run: checkHost},
			{name: "path", reason: ReasonInvalidPath, run: checkPath},
			{name: "query_params", reason: ReasonInvalidQueryParam, run: checkQueryParams},
			{name: "duplicates", reason: ReasonDuplicateParam, run: checkDuplicates},
			{name: "fragment", reason: ReasonFragmentNotAllowed, run: checkFragment},
		},
	}
}

// CheckOrder returns the names of the ordered checks that follow the length
// and parse gates. Exposed so the order can be a tested artifact.
func (v *Validator) CheckOrder() []string {
	names := make([]string, 0, len(v.checks)+2)
	names = append(names, "length", "parse")
	for _, c := range v.checks {
		names = append(names, c.name)
	}
	return names
}

// Validate classifies one raw URL string. Pure, synchronous, no side effects;
// it never panics and never returns an error — every failure mode is a
// classified Result.
func (v *Validator) Validate(raw string) Result {
	// Length gate runs before parsing so oversized inputs are rejected on
	// byte count alone, regardless of content.
	if len(raw) > MaxURLLength {
		return invalid(ReasonURLTooLong, fmt.Sprintf("url is %d characters, limit is %d", len(raw), MaxURLLength))
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return invalid(ReasonInvalidURLFormat, "unparseable url: "+err.Error())
	}

	link := &parsedLink{url: parsed}
	for _, c := range v.checks {
		if ok, detail := c.run(link); !ok {
			return invalid(c.reason, detail)
		}
	}

	params := make(map[string]string, len(link.params))
	for _, p := range link.params {
		params[p.key] = p.value
	}
	return Result{Valid: true, Path: parsed.EscapedPath(), Params: params}
}

func invalid(reason ReasonCode, detail string) Result {
	return Result{Valid: false, Reason: reason, Detail: detail}
}

func checkScheme(l *parsedLink) (bool, string) {
	if !strings.EqualFold(l.url.Scheme, Scheme) {
		return false, "scheme " + l.url.Scheme + " is not allowed"
	}
	return true, ""
}

func checkHost(l *parsedLink) (bool, string) {
	if l.url.Host != Host {
		return false, "host " + l.url.Host + " is not allowed"
	}
	return true, ""
}

// checkPath requires byte-identical membership in the path allowlist. No
// prefix matching, no trailing-slash normalization, no dot-segment resolution:
// traversal and trailing-segment attempts fail here instead of being
// normalized into an allowed path. The escaped form is compared so
// percent-encoded variants of an allowed path are rejected too.
func checkPath(l *parsedLink) (bool, string) {
	escaped := l.url.EscapedPath()
	for _, allowed := range allowedPaths {
		if escaped == allowed {
			return true, ""
		}
	}
	return false, "path " + escaped + " is not allowed"
}

// checkQueryParams parses the raw query in document order so the first
// unrecognized name is deterministic. Every malformed pair is rejected as an
// unrecognized parameter: url.Parse does not validate query escapes, and this
// gate fails closed on anything it cannot decode.
func checkQueryParams(l *parsedLink) (bool, string) {
	rawQuery := l.url.RawQuery
	if rawQuery == "" {
		return true, ""
	}

	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(segment, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return false, "undecodable query parameter name " + rawKey
		}
		if !allowedParams[key] {
			return false, "query parameter " + key + " is not allowed"
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return false, "undecodable value for query parameter " + key
		}

		l.params = append(l.params, queryParam{key: key, value: value})
	}
	return true, ""
}

func checkDuplicates(l *parsedLink) (bool, string) {
	seen := make(map[string]bool, len(l.params))
	for _, p := range l.params {
		if seen[p.key] {
			return false, "query parameter " + p.key + " appears more than once"
		}
		seen[p.key] = true
	}
	return true, ""
}

func checkFragment(l *parsedLink) (bool, string) {
	if l.url.Fragment != "" {
		return false, "fragment component is not allowed"
	}
	return true, ""
}
