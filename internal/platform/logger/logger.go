// Package logger builds the structured JSON logger used across the gateway.
//
// The logger is policy-driven: the composition root selects a Policy once at
// startup and every component receives the resulting *slog.Logger. Redaction is
// therefore centrally auditable here instead of being scattered through runtime
// environment checks.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Policy selects how much the logger is allowed to emit.
type Policy string

const (
	// PolicyVerbose emits everything verbatim, including debug records and
	// diagnostic detail. Development builds only.
	PolicyVerbose Policy = "verbose"

	// PolicyRedacting drops debug records entirely and masks any attribute
	// whose key resembles an email, password, token, secret, URL, or
	// validation detail before the record reaches the sink.
	PolicyRedacting Policy = "redacting"
)

// Redacted replaces the value of every masked attribute.
const Redacted = "[redacted]"

// sensitiveFragments are matched as substrings against lowercased attribute
// keys. A deep-link validation "detail" may echo attacker-supplied values
// (offending host, path, raw URL) and must never reach a production sink.
var sensitiveFragments = []string{
	"email",
	"password",
	"token",
	"secret",
	"detail",
	"url",
	"state",
	"authorization",
}

// New returns a structured JSON logger using slog, configured per policy.
func New(policy Policy) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	if policy == PolicyRedacting {
		opts.Level = slog.LevelInfo
		opts.ReplaceAttr = redactAttr
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// IsSensitiveKey reports whether an attribute key would be masked under
// PolicyRedacting. Exported so tests and components can assert the contract.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey, slog.LevelKey, slog.MessageKey:
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}
