package config

import (
	"os"
	"time"

	"linkgate/internal/platform/logger"
)

// StateStoreBackend selects where the single CSRF state-token slot lives.
type StateStoreBackend string

const (
	StateStoreMemory StateStoreBackend = "memory"
	StateStoreRedis  StateStoreBackend = "redis"
)

// Server captures gateway-level configuration.
type Server struct {
	Addr        string
	Environment string
	LogPolicy   logger.Policy
	StateStore  StateStoreBackend
	RedisURL    string
	// SweepInterval controls how often stale rate-limit entries are purged.
	SweepInterval time.Duration
	// DevSecret signs the dev stub provider's access tokens. It guards nothing
	// real and must never be pointed at production credentials.
	DevSecret string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("LINKGATE_ADDR")
	if addr == "" {
		addr = "127.0.0.1:17872"
	}

	environment := os.Getenv("LINKGATE_ENV")
	if environment == "" {
		environment = "production"
	}

	// The redaction guarantee fails closed: anything that is not explicitly a
	// development build logs through the redacting policy.
	policy := logger.PolicyRedacting
	if environment == "development" {
		policy = logger.PolicyVerbose
	}

	backend := StateStoreMemory
	if os.Getenv("LINKGATE_STATE_STORE") == "redis" {
		backend = StateStoreRedis
	}

	sweepInterval := time.Hour
	if raw := os.Getenv("LINKGATE_SWEEP_INTERVAL"); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil {
			sweepInterval = duration
		}
	}

	devSecret := os.Getenv("LINKGATE_DEV_SECRET")
	if devSecret == "" {
		devSecret = "linkgate-dev-signing-secret"
	}

	return Server{
		Addr:          addr,
		Environment:   environment,
		LogPolicy:     policy,
		StateStore:    backend,
		RedisURL:      os.Getenv("LINKGATE_REDIS_URL"),
		SweepInterval: sweepInterval,
		DevSecret:     devSecret,
	}
}
