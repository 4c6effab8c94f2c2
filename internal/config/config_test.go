package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Tulpar/1.0 (BugBountyScanner)", cfg.UserAgent)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 50, cfg.HTTP.MaxConnections)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.Delay())
	assert.Equal(t, 5*time.Minute, cfg.Tools.Subfinder.Timeout())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tulpar.yaml")
	yaml := `
output_dir: /tmp/recon
user_agent: "CustomAgent/2.0"
http:
  timeout_seconds: 30
rate_limit:
  delay_ms: 100
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/recon", cfg.OutputDir)
	assert.Equal(t, "CustomAgent/2.0", cfg.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit.Delay())
	// Untouched values keep their defaults.
	assert.Equal(t, 50, cfg.HTTP.MaxConnections)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tulpar.yaml")
	yaml := `
http:
  timeout_seconds: -5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.UserAgent = ""
	cfg.HTTP.MaxConnections = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_agent")
	assert.Contains(t, err.Error(), "max_connections")
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tulpar.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().UserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultConfig().HTTP.TimeoutSeconds, cfg.HTTP.TimeoutSeconds)
}
