package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerPolicySuite struct {
	suite.Suite
}

func TestLoggerPolicySuite(t *testing.T) {
	suite.Run(t, new(LoggerPolicySuite))
}

// newCapture builds a logger identical to New() but writing to a buffer so the
// emitted JSON can be inspected.
func newCapture(policy Policy) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if policy == PolicyRedacting {
		opts.Level = slog.LevelInfo
		opts.ReplaceAttr = redactAttr
	}
	return slog.New(slog.NewJSONHandler(buf, opts)), buf
}

func (s *LoggerPolicySuite) decode(buf *bytes.Buffer) map[string]any {
	var record map[string]any
	s.Require().NoError(json.Unmarshal(buf.Bytes(), &record))
	return record
}

func (s *LoggerPolicySuite) TestRedactingPolicy() {
	s.Run("masks sensitive attribute values", func() {
		log, buf := newCapture(PolicyRedacting)
		log.Warn("deep link rejected",
			"reason_code", "INVALID_HOST",
			"detail", "host evil.com not allowed",
			"raw_url", "todo://evil.com/callback",
		)

		record := s.decode(buf)
		s.Equal("INVALID_HOST", record["reason_code"], "reason codes are stable identifiers and stay")
		s.Equal(Redacted, record["detail"], "detail may echo attacker input")
		s.Equal(Redacted, record["raw_url"])
	})

	s.Run("debug is a no-op", func() {
		log, buf := newCapture(PolicyRedacting)
		log.Debug("probe", "email", "user@example.com")
		s.Zero(buf.Len())
	})

	s.Run("masks token-bearing keys regardless of casing", func() {
		log, buf := newCapture(PolicyRedacting)
		log.Error("provider rejected session",
			"accessToken", "eyJhbGciOi...",
			"refresh_token", "abc",
		)

		record := s.decode(buf)
		s.Equal(Redacted, record["accessToken"])
		s.Equal(Redacted, record["refresh_token"])
	})
}

func (s *LoggerPolicySuite) TestVerbosePolicy() {
	s.Run("emits debug records verbatim", func() {
		log, buf := newCapture(PolicyVerbose)
		log.Debug("deep link rejected", "detail", "host evil.com not allowed")

		record := s.decode(buf)
		s.Equal("host evil.com not allowed", record["detail"])
	})
}

func (s *LoggerPolicySuite) TestIsSensitiveKey() {
	sensitive := []string{"email", "user_email", "password", "access_token", "detail", "raw_url", "state", "client_secret", "Authorization"}
	for _, key := range sensitive {
		s.True(IsSensitiveKey(key), key)
	}

	benign := []string{"reason_code", "path_allowed", "attempt_count", "retry_after_ms", "status", "flow"}
	for _, key := range benign {
		s.False(IsSensitiveKey(key), key)
	}
}
