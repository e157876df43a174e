package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.SSEWriteTimeout)
	assert.Equal(t, 64, cfg.Observers.Buffer)
	assert.Equal(t, time.Duration(0), cfg.Observers.Timeout)
	assert.Equal(t, "connect6:snapshots", cfg.Redis.Channel)
	assert.Equal(t, "connect6:latest", cfg.Redis.LatestKey)
	assert.False(t, cfg.Redis.RelayEnabled())
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONNECT6_PORT", "9191")
	t.Setenv("CONNECT6_OBSERVER_TIMEOUT", "30s")
	t.Setenv("CONNECT6_REDIS_ADDR", "redis:6379")
	t.Setenv("NGROK_AUTH_TOKEN", "secret")

	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.False(t, cfg.Tunnel.Enabled)
	assert.Equal(t, "secret", cfg.Tunnel.AuthToken)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Observers.Timeout)
	assert.True(t, cfg.Redis.RelayEnabled())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	data := []byte(`
host: 0.0.0.0
port: 7000
log-level: debug
observers:
  buffer: 8
  timeout: 1m
redis:
  addr: localhost:6379
  channel: games
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Observers.Buffer)
	assert.Equal(t, time.Minute, cfg.Observers.Timeout)
	assert.Equal(t, "games", cfg.Redis.Channel)
	assert.Equal(t, "http://localhost:7000", cfg.BaseURL())
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yml")

	_, err := Load(missing, true)
	assert.ErrorIs(t, err, ErrConfigNotFound)

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 70000 }},
		{"buffer", func(c *Config) { c.Observers.Buffer = 0 }},
		{"timeout", func(c *Config) { c.Observers.Timeout = -time.Second }},
		{"sse write timeout", func(c *Config) { c.HTTP.SSEWriteTimeout = 0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Load("", false)
			require.NoError(t, err)
			test.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CONNECT6_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CONNECT6_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("CONNECT6_TEST_DOTENV"))
}
