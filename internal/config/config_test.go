package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Session.SealPassphrase = "test-passphrase"
	return cfg
}

func TestDefaultsValidateWithPassphrase(t *testing.T) {
	cfg := validConfig()
	check.Nil(t, cfg.Validate())
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "turbo"

	err := cfg.Validate()
	check.NotNil(t, err)
	check.True(t, strings.Contains(err.Error(), "unknown mode"))
}

func TestValidateRejectsMissingPassphrase(t *testing.T) {
	cfg := Defaults()

	err := cfg.Validate()
	check.NotNil(t, err)
	check.True(t, strings.Contains(err.Error(), "seal_passphrase"))
}

func TestValidateRejectsBadTimeWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Monitor.TimeWindows = []string{"current", "yesterday"}

	err := cfg.Validate()
	check.NotNil(t, err)
	check.True(t, strings.Contains(err.Error(), "unknown time window"))
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.BaseURL = ""
	cfg.Redis.Addr = ""
	cfg.Poller.MaxAttempts = 0

	err := cfg.Validate()
	check.NotNil(t, err)
	check.True(t, strings.Contains(err.Error(), "base_url"))
	check.True(t, strings.Contains(err.Error(), "redis"))
	check.True(t, strings.Contains(err.Error(), "max_attempts"))
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	raw := `
mode = "serve"
log_level = "debug"

[upstream]
base_url = "https://staging.evmarket.example.com/v1"

[session]
seal_passphrase = "file-secret"
ttl = "12h"

[poller]
max_attempts = 5
interval = "1s"
`
	check.Nil(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	check.Nil(t, err)
	check.Equal(t, "serve", cfg.Mode)
	check.Equal(t, "debug", cfg.LogLevel)
	check.Equal(t, "https://staging.evmarket.example.com/v1", cfg.Upstream.BaseURL)
	check.Equal(t, 12*time.Hour, cfg.Session.TTL.Duration)
	check.Equal(t, 5, cfg.Poller.MaxAttempts)
	check.Equal(t, time.Second, cfg.Poller.Interval.Duration)
	// Untouched sections keep defaults.
	check.Equal(t, "localhost:6379", cfg.Redis.Addr)
	check.Equal(t, 10, cfg.Catalog.PageSize)
	check.Nil(t, cfg.Validate())
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	check.Nil(t, os.WriteFile(path, []byte(`[session]`+"\n"+`seal_passphrase = "x"`), 0o600))

	t.Setenv("EVMARKET_MODE", "monitor")
	t.Setenv("EVMARKET_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("EVMARKET_POLLER_INTERVAL", "500ms")
	t.Setenv("EVMARKET_SERVER_CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load(path)
	check.Nil(t, err)
	check.Equal(t, "monitor", cfg.Mode)
	check.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	check.Equal(t, 500*time.Millisecond, cfg.Poller.Interval.Duration)
	check.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
}

func TestEnvOverrideIgnoresUnparsableValues(t *testing.T) {
	cfg := validConfig()
	t.Setenv("EVMARKET_POSTGRES_PORT", "not-a-number")
	t.Setenv("EVMARKET_MONITOR_ENABLED", "maybe")

	applyEnvOverrides(&cfg)
	check.Equal(t, 5432, cfg.Postgres.Port)
	check.True(t, cfg.Monitor.Enabled)
}
