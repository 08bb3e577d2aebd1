package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
service:
  url: http://localhost:8000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Service.URL)
	assert.Equal(t, 15*time.Second, cfg.Service.Timeout)
	assert.Equal(t, 24, cfg.Relay.BatchSize)
	assert.Equal(t, 3, cfg.Relay.Retries)
	assert.Equal(t, time.Second, cfg.Relay.RetryInterval)
	assert.Equal(t, 256, cfg.Relay.Bound)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Feed.URL)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
service:
  url: https://mjapi.example.com
  user: alice
  secret: hunter2
  model_4p: alpha-4p
  model_3p: beta-3p
relay:
  batch_size: 8
  retries: 5
  retry_interval: 250ms
  bound: 64
feed:
  url: ws://127.0.0.1:7878/events
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Service.User)
	assert.Equal(t, "alpha-4p", cfg.Service.Model4P)
	assert.Equal(t, "beta-3p", cfg.Service.Model3P)
	assert.Equal(t, 8, cfg.Relay.BatchSize)
	assert.Equal(t, 5, cfg.Relay.Retries)
	assert.Equal(t, 250*time.Millisecond, cfg.Relay.RetryInterval)
	assert.Equal(t, 64, cfg.Relay.Bound)
	assert.Equal(t, "ws://127.0.0.1:7878/events", cfg.Feed.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	t.Setenv("MJAI_SERVICE_URL", "http://env.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.com", cfg.Service.URL)
	assert.Equal(t, 24, cfg.Relay.BatchSize)
}

func TestLoadRequiresServiceURL(t *testing.T) {
	path := writeConfig(t, `
relay:
  batch_size: 8
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service.url")
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
service:
  url: http://localhost:8000
relay:
  bound: -1
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay.bound")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
