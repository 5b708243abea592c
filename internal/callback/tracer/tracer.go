// Package tracer provides a lightweight tracing abstraction for the callback
// module.
//
// It defines an internal tracer interface with no direct OpenTelemetry
// dependency, so the orchestrator can emit spans while staying decoupled from
// a specific tracing implementation.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashToken returns a short SHA-256 hash of a token value for safe trace
// correlation. The raw value never reaches a span attribute.
func HashToken(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:8])
}

// Span names used by the callback module.
const (
	SpanHandleURLOpen    = "callback.handle_url_open"
	SpanValidateURL      = "callback.validate_url"
	SpanValidateState    = "callback.validate_state"
	SpanEstablishSession = "callback.establish_session"
)

// Attribute keys used by the callback module.
const (
	AttrReason    = "reason"
	AttrFlow      = "flow"
	AttrPath      = "path"
	AttrStateHash = "state_token_hash"
	AttrURLCount  = "url_count"
)
