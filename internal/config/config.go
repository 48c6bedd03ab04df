package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const minSecretLength = 16

type Config struct {
	// HTTP Server
	Port            string
	ClientURL       string
	RequestTimeout  time.Duration
	MaxRequestBytes int64
	RateLimitPerMin int

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// Secrets
	SecretKey string
	JWTSecret string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	ExportDir string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "5000"),
		ClientURL:       getEnv("CLIENT_URL", ""),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxRequestBytes: int64(getEnvInt("MAX_REQUEST_BYTES", 1<<20)),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		SecretKey: getEnv("SECRET_KEY", ""),
		JWTSecret: getEnv("JWT_SECRET", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),

		ExportDir: getEnv("EXPORT_DIR", "./data/exports"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks everything every binary needs.
func (c *Config) Validate() error {
	return combine(c.problems())
}

// ValidateServer additionally requires the settings only the HTTP API uses.
func (c *Config) ValidateServer() error {
	errors := c.problems()

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 100ms", c.RequestTimeout))
	}
	if c.MaxRequestBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max request bytes %d: must be at least 1024", c.MaxRequestBytes))
	}
	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMin))
	}

	if c.ClientURL != "" {
		if u, err := url.Parse(c.ClientURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid client URL '%s': must be an absolute URL", c.ClientURL))
		}
	}

	return combine(errors)
}

// ValidateWorker additionally requires the broker and the export directory.
func (c *Config) ValidateWorker() error {
	errors := c.problems()
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if strings.TrimSpace(c.ExportDir) == "" {
		errors = append(errors, "EXPORT_DIR cannot be empty")
	}
	return combine(errors)
}

func (c *Config) problems() []string {
	var errors []string

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.SecretKey == "" {
		errors = append(errors, "SECRET_KEY is required")
	} else if len(c.SecretKey) < minSecretLength {
		errors = append(errors, fmt.Sprintf("SECRET_KEY must be at least %d characters", minSecretLength))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL: %v", err))
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

	return errors
}

// LogValue keeps secrets and broker credentials out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("port", c.Port),
		slog.String("data_backend", c.DataBackend),
		slog.String("sqlite_db_path", c.SQLiteDBPath),
		slog.String("secret_key", redact(c.SecretKey)),
		slog.String("jwt_secret", redact(c.JWTSecret)),
		slog.String("amqp_url", redactURL(c.AMQPURL)),
		slog.String("amqp_exchange", c.AMQPExchange),
		slog.String("amqp_queue", c.AMQPQueue),
		slog.String("export_dir", c.ExportDir),
		slog.Duration("request_timeout", c.RequestTimeout),
		slog.Int64("max_request_bytes", c.MaxRequestBytes),
		slog.Int("rate_limit_per_minute", c.RateLimitPerMin),
		slog.String("client_url", c.ClientURL),
		slog.String("log_level", c.LogLevel),
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	return u.Redacted()
}

func combine(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
