package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bacflow/dataflow/internal/config"
)

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("OBSERVER_ADDR")
	os.Unsetenv("DEFAULT_SANDBOX_TIMEOUT_MS")
	os.Unsetenv("DEFAULT_TICK_INTERVAL_MS")
	os.Unsetenv("ENABLE_TRACING")

	cfg := config.Load()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8090", cfg.ObserverAddr)
	assert.Equal(t, 5000, cfg.DefaultSandboxTimeoutMs)
	assert.Equal(t, 1000, cfg.DefaultTickIntervalMs)
	assert.False(t, cfg.EnableTracing)
}

func TestLoad_ReadsOverridesFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_SANDBOX_TIMEOUT_MS", "2500")
	t.Setenv("ENABLE_TRACING", "true")

	cfg := config.Load()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2500, cfg.DefaultSandboxTimeoutMs)
	assert.True(t, cfg.EnableTracing)
}

func TestLoad_IgnoresUnparsableIntAndFallsBackToDefault(t *testing.T) {
	t.Setenv("DEFAULT_TICK_INTERVAL_MS", "not-a-number")

	cfg := config.Load()
	assert.Equal(t, 1000, cfg.DefaultTickIntervalMs)
}
