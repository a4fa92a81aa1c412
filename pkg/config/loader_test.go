package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, v, err := Load(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, 14, cfg.Widget.AvailabilityDays)
	assert.Equal(t, "aadee_session_id", cfg.Session.Key)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "console", cfg.Widget.Frontend)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("backend:\n  url: http://api.example.com\nwidget:\n  availability_days: 7\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"), yaml, 0o600))

	t.Setenv("APP_ENV", "staging")
	t.Setenv("WIDGET_LANGUAGE", "es")

	cfg, _, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://api.example.com", cfg.Backend.URL)
	assert.Equal(t, 7, cfg.Widget.AvailabilityDays)
	assert.Equal(t, "es", cfg.Widget.Language)
}

func TestLoad_ValidationFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("widget:\n  availability_days: 90\n"), 0o600))
	t.Setenv("APP_ENV", "bad")

	_, _, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
	assert.False(t, (&Config{AppEnv: "development"}).IsProduction())
}
