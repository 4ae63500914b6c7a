package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 0, cfg.Runner.MaxConcurrent)
	assert.Equal(t, 2, cfg.Runner.SaveRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Runner.RetryBackoff)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JOBVAULT_SERVER_PORT", "9090")
	t.Setenv("JOBVAULT_SERVER_LOG_LEVEL", "debug")
	t.Setenv("JOBVAULT_STORAGE_BACKEND", "fs")
	t.Setenv("JOBVAULT_STORAGE_DIR", "/var/lib/jobvault")
	t.Setenv("JOBVAULT_RUNNER_MAX_CONCURRENT", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "fs", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/jobvault", cfg.Storage.Dir)
	assert.Equal(t, 4, cfg.Runner.MaxConcurrent)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("JOBVAULT_SERVER_LOG_LEVEL", "verbose")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid backend", func(t *testing.T) {
		t.Setenv("JOBVAULT_STORAGE_BACKEND", "cassandra")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("JOBVAULT_SERVER_PORT", "70000")

		_, err := Load()
		assert.Error(t, err)
	})
}
