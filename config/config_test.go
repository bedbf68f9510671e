package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, "habitrack.db", cfg.Database.DSN)
	assert.Equal(t, "database", cfg.Storage.Driver)
	assert.Equal(t, "mock", cfg.Remote.Mode)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Remote.Latency)
	assert.Equal(t, 60*time.Second, cfg.Auth.OTPCooldown)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 16, cfg.WorkerPool.QueueSize)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ExplicitValues(t *testing.T) {
	body := `
remote:
  mode: http
  base_url: https://api.example.com
  latency_ms: 800
  timeout_seconds: 3
auth:
  otp_cooldown_seconds: 30
worker_pool:
  size: 4
  queue_size: 8
log:
  level: debug
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Remote.Mode)
	assert.Equal(t, "https://api.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 800*time.Millisecond, cfg.Remote.Latency)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Auth.OTPCooldown)
	assert.Equal(t, 4, cfg.WorkerPool.Size)
	assert.Equal(t, 8, cfg.WorkerPool.QueueSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
