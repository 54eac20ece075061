package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"GO_ENV", "LOG_FILE_PATH", "BIGSIS_STRICT", "BRAIN_API_URL", "BRAIN_LANGUAGE",
		"BRAIN_ZONE", "BRAIN_REQUEST_TIMEOUT_SECONDS", "BIGSIS_ACCESS_TOKEN", "STUB_PORT", "OTEL_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	// Empty values are explicit, so only parsed types fall back.
	assert.False(t, cfg.App.Strict)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Brain.RequestTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("BIGSIS_STRICT", "true")
	t.Setenv("BRAIN_API_URL", "http://brain.local/api/v1/")
	t.Setenv("BRAIN_ZONE", "glabelle")
	t.Setenv("BRAIN_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("BRAIN_LANGUAGE", "en")
	t.Setenv("OTEL_ENABLED", "1")

	cfg := FromEnv()

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.App.Strict)
	assert.Equal(t, "http://brain.local/api/v1", cfg.Brain.BaseURL)
	assert.Equal(t, "glabelle", cfg.Brain.Zone)
	assert.Equal(t, "en", cfg.Brain.Language)
	assert.Equal(t, 5*time.Second, cfg.Brain.RequestTimeout)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("BRAIN_REQUEST_TIMEOUT_SECONDS", "soon")
	assert.Equal(t, 30, getEnvAsInt("BRAIN_REQUEST_TIMEOUT_SECONDS", 30))
}
