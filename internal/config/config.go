package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	TrustedProxies     []string

	// Database
	SQLiteDBPath string

	// Sessions
	JWTSecret string
	TokenTTL  time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel  string
	LogFormat string

	// Catalog policy
	TypeSuffixOnCreate bool
	TypeDeleteGuard    bool
	SlugMaxAttempts    int

	// Import
	ImportMaxBytes int64

	// Worker
	WorkerPollInterval time.Duration
}

const (
	DefaultPort               = "8081"
	DefaultSQLiteDBPath       = "./data/ledger.db"
	DefaultTokenTTL           = 24 * time.Hour
	DefaultAMQPExchange       = "ledger"
	DefaultAMQPQueue          = "ledger_activity"
	DefaultRateLimitPerMinute = 120
	DefaultImportMaxBytes     = 5 << 20
	DefaultSlugMaxAttempts    = 5
	DefaultWorkerPollInterval = 30 * time.Second

	minJWTSecretLength = 16
)

// Load reads configuration from the environment and, when LEDGER_CONFIG
// names a file, from that file. Environment values win over file values.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("SQLITE_DB_PATH", DefaultSQLiteDBPath)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", DefaultTokenTTL)
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", DefaultAMQPExchange)
	v.SetDefault("AMQP_QUEUE", DefaultAMQPQueue)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", DefaultRateLimitPerMinute)
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("TYPE_SUFFIX_ON_CREATE", true)
	v.SetDefault("TYPE_DELETE_GUARD", true)
	v.SetDefault("IMPORT_MAX_BYTES", DefaultImportMaxBytes)
	v.SetDefault("SLUG_MAX_ATTEMPTS", DefaultSlugMaxAttempts)
	v.SetDefault("WORKER_POLL_INTERVAL", DefaultWorkerPollInterval)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:               v.GetString("PORT"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		TrustedProxies:     splitList(v.GetString("TRUSTED_PROXIES")),

		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),

		JWTSecret: v.GetString("JWT_SECRET"),
		TokenTTL:  v.GetDuration("TOKEN_TTL"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),

		TypeSuffixOnCreate: v.GetBool("TYPE_SUFFIX_ON_CREATE"),
		TypeDeleteGuard:    v.GetBool("TYPE_DELETE_GUARD"),
		SlugMaxAttempts:    v.GetInt("SLUG_MAX_ATTEMPTS"),

		ImportMaxBytes: v.GetInt64("IMPORT_MAX_BYTES"),

		WorkerPollInterval: v.GetDuration("WORKER_POLL_INTERVAL"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EventsEnabled reports whether activity events are published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if len(c.JWTSecret) < minJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}
	if c.TokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}

	// AMQP is optional; when configured it needs a routable exchange and queue.
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.RateLimitPerMinute <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be greater than 0", c.RateLimitPerMinute))
	}
	if c.ImportMaxBytes <= 0 {
		errors = append(errors, fmt.Sprintf("invalid import size limit %d: must be greater than 0", c.ImportMaxBytes))
	}
	if c.SlugMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("invalid slug attempt limit %d: must be greater than 0", c.SlugMaxAttempts))
	}
	if c.WorkerPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid worker poll interval %v: must be at least 1 second", c.WorkerPollInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
