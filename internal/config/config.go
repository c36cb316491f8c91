package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL        string
	ServerAddr         string
	StorageDriver      string
	MigrationsEnabled  bool
	AuditSigningSecret string

	NotificationWorkers       int
	NotificationQueueSize     int
	NotificationRetryInterval time.Duration

	DefaultCurrency string
	MetricsPrefix   string
	LogLevel        string
}

// Load reads configuration from the environment. Values in a .env file in the
// working directory fill keys the environment leaves unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "procurement")
		pass := getenv("POSTGRES_PASSWORD", "procurement_pass")
		db := getenv("POSTGRES_DB", "procurement")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	cfg := &Config{
		DatabaseURL:               dsn,
		ServerAddr:                getenv("SERVER_ADDR", "0.0.0.0:8080"),
		StorageDriver:             strings.ToLower(getenv("STORAGE_DRIVER", StoragePostgres)),
		MigrationsEnabled:         parseBool(getenv("MIGRATIONS_ENABLED", "true"), true),
		AuditSigningSecret:        os.Getenv("AUDIT_SIGNING_SECRET"),
		NotificationWorkers:       parseInt(getenv("NOTIFICATION_WORKERS", "2"), 2),
		NotificationQueueSize:     parseInt(getenv("NOTIFICATION_QUEUE_SIZE", "256"), 256),
		NotificationRetryInterval: parseDuration(getenv("NOTIFICATION_RETRY_INTERVAL", "30s"), 30*time.Second),
		DefaultCurrency:           strings.ToUpper(getenv("DEFAULT_CURRENCY", "USD")),
		MetricsPrefix:             getenv("METRICS_PREFIX", "procurement"),
		LogLevel:                  getenv("LOG_LEVEL", "info"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency)
	}
	if c.NotificationWorkers < 1 {
		return fmt.Errorf("NOTIFICATION_WORKERS must be positive")
	}
	if c.NotificationQueueSize < 1 {
		return fmt.Errorf("NOTIFICATION_QUEUE_SIZE must be positive")
	}
	return nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseInt(val string, def int) int {
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}
