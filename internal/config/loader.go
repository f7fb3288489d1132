package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies EVMARKET_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known EVMARKET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Upstream ──
	setStr(&cfg.Upstream.BaseURL, "EVMARKET_UPSTREAM_BASE_URL")

	// ── Session ──
	setDuration(&cfg.Session.TTL, "EVMARKET_SESSION_TTL")
	setDuration(&cfg.Session.CacheTTL, "EVMARKET_SESSION_CACHE_TTL")
	setStr(&cfg.Session.SealPassphrase, "EVMARKET_SESSION_SEAL_PASSPHRASE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "EVMARKET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "EVMARKET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "EVMARKET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "EVMARKET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "EVMARKET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "EVMARKET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "EVMARKET_POSTGRES_SSLMODE")
	setStr(&cfg.Postgres.SSLMode, "EVMARKET_POSTGRES_SSL_MODE") // compatibility alias
	setInt(&cfg.Postgres.PoolMaxConns, "EVMARKET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "EVMARKET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "EVMARKET_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "EVMARKET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "EVMARKET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "EVMARKET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "EVMARKET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "EVMARKET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "EVMARKET_REDIS_TLS_ENABLED")
	setInt64(&cfg.Redis.StreamMaxLen, "EVMARKET_REDIS_STREAM_MAX_LEN")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "EVMARKET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "EVMARKET_S3_REGION")
	setStr(&cfg.S3.Bucket, "EVMARKET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "EVMARKET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "EVMARKET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "EVMARKET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "EVMARKET_S3_FORCE_PATH_STYLE")

	// ── Poller ──
	setInt(&cfg.Poller.MaxAttempts, "EVMARKET_POLLER_MAX_ATTEMPTS")
	setDuration(&cfg.Poller.Interval, "EVMARKET_POLLER_INTERVAL")

	// ── Monitor ──
	setBool(&cfg.Monitor.Enabled, "EVMARKET_MONITOR_ENABLED")
	setDuration(&cfg.Monitor.Interval, "EVMARKET_MONITOR_INTERVAL")
	setStringSlice(&cfg.Monitor.TimeWindows, "EVMARKET_MONITOR_TIME_WINDOWS")

	// ── Catalog ──
	setInt(&cfg.Catalog.PageSize, "EVMARKET_CATALOG_PAGE_SIZE")
	setInt(&cfg.Catalog.MaxScanPages, "EVMARKET_CATALOG_MAX_SCAN_PAGES")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "EVMARKET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "EVMARKET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "EVMARKET_SERVER_CORS_ORIGINS")
	setBool(&cfg.Server.RateLimitEnabled, "EVMARKET_SERVER_RATE_LIMIT_ENABLED")
	setInt(&cfg.Server.RateLimitPerMin, "EVMARKET_SERVER_RATE_LIMIT_PER_MIN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "EVMARKET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "EVMARKET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "EVMARKET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "EVMARKET_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "EVMARKET_MODE")
	setStr(&cfg.LogLevel, "EVMARKET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
