// Package config loads engine-level settings from the environment.
//
// Grounded on the teacher's internal/infrastructure/config/config.go
// (env-var loader with typed getters); DatabaseDSN is dropped since
// persistence is out of scope (spec §1 Non-goals), and fields are
// replaced with the tick/sandbox/observer settings this engine needs.
package config

import (
	"os"
	"strconv"
)

// Config holds process-wide engine settings.
type Config struct {
	LogLevel string

	// ObserverAddr is the bind address for the websocket UI observer.
	ObserverAddr string

	// DefaultSandboxTimeoutMs is loaded from the environment but not passed
	// to the Function executor, which falls back to its own 5000 ms when
	// a node's metadata omits timeout-ms.
	DefaultSandboxTimeoutMs int

	// DefaultTickIntervalMs is the host's default synchronous-tick cadence
	// when running in a polling loop rather than on explicit tick() calls.
	DefaultTickIntervalMs int

	// EnableTracing gates the otel span instrumentation around ticks and
	// per-node dispatch.
	EnableTracing bool
}

// Load reads Config from the environment, applying the same defaults the
// teacher's Load() does for unset variables.
func Load() *Config {
	return &Config{
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		ObserverAddr:             getEnv("OBSERVER_ADDR", ":8090"),
		DefaultSandboxTimeoutMs:  getEnvInt("DEFAULT_SANDBOX_TIMEOUT_MS", 5000),
		DefaultTickIntervalMs:    getEnvInt("DEFAULT_TICK_INTERVAL_MS", 1000),
		EnableTracing:            getEnvBool("ENABLE_TRACING", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
