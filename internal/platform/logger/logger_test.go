package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/jobvault/internal/config"
)

func TestSetup(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger := Setup(config.ServerConfig{Port: 8080, LogLevel: level})
			assert.NotNil(t, logger)
		})
	}

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger := Setup(config.ServerConfig{Port: 8080, LogLevel: "loud"})
		assert.NotNil(t, logger)
	})
}
