// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageBadger = "badger"
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Cron    CronConfig
	Notify  NotifyConfig
	Cache   CacheConfig
	Events  EventsConfig
	Catalog CatalogConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// URL is the public web app origin used for links in emails.
	URL string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string
	// Path is the badger directory or the sqlite file.
	Path             string
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize int
	MongoMaxRetry    int
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
	// LoginPerMinute is the sustained login attempt rate per client IP.
	LoginPerMinute int
	LoginBurst     int
}

// CronConfig controls the inactivity scan.
type CronConfig struct {
	// Secret guards the HTTP trigger. Empty disables the check.
	Secret   string
	Schedule string
	Enabled  bool
	Timezone string
}

// NotifyConfig holds the automation webhook endpoints.
type NotifyConfig struct {
	ReminderURL   string
	CompletionURL string
	Timeout       time.Duration
	// DispatchPerSecond paces reminder webhooks during a scan.
	DispatchPerSecond float64
}

// CacheConfig selects the hero content cache backend.
type CacheConfig struct {
	Driver        string
	HeroTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// EventsConfig holds NATS settings. An empty URL disables publishing.
type EventsConfig struct {
	NATSURL       string
	SubjectPrefix string
}

// CatalogConfig locates the book catalog.
type CatalogConfig struct {
	// Path to a JSON catalog. Empty uses the embedded catalog.
	Path  string
	Watch bool
}

// source resolves values with precedence flag > environment > .env > default.
type source struct {
	flags  map[string]*string
	dotenv map[string]string
}

func (s *source) str(flagName, envKey, def string) string {
	if p, ok := s.flags[flagName]; ok && p != nil && *p != "" {
		return *p
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if v := s.dotenv[envKey]; v != "" {
		return v
	}
	return def
}

func (s *source) boolean(flagName, envKey string, def bool) bool {
	v := s.str(flagName, envKey, "")
	if v == "" {
		return def
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

func (s *source) integer(flagName, envKey string, def int) int {
	v := s.str(flagName, envKey, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *source) float(flagName, envKey string, def float64) float64 {
	v := s.str(flagName, envKey, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (s *source) duration(flagName, envKey, def string) (time.Duration, error) {
	v := s.str(flagName, envKey, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return d, nil
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and resolves every setting with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("mimirswell", flag.ContinueOnError)
	src := &source{flags: map[string]*string{}}
	for _, name := range []string{
		"env", "log-level", "app-url",
		"port", "read-timeout", "write-timeout", "idle-timeout",
		"storage", "data-path", "mongo-uri", "mongo-database",
		"jwt-secret", "token-ttl",
		"cron-secret", "cron-schedule", "cron-enabled", "timezone",
		"reminder-url", "completion-url",
		"cache", "redis-addr",
		"nats-url",
		"catalog-path", "catalog-watch",
	} {
		src.flags[name] = fs.String(name, "", "")
	}
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is not an error.
	if values, err := godotenv.Read(*envFile); err == nil {
		src.dotenv = values
	}

	cfg := &Config{
		App: AppConfig{
			Environment: src.str("env", "ENV", "development"),
			URL:         strings.TrimRight(src.str("app-url", "APP_URL", "http://localhost:3000"), "/"),
		},
		Logger: LoggerConfig{
			Level: src.str("log-level", "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:        src.str("port", "SERVER_PORT", "8080"),
			CORSOrigins: splitList(src.str("", "CORS_ORIGINS", "")),
		},
		Storage: StorageConfig{
			Driver:           strings.ToLower(src.str("storage", "STORAGE_DRIVER", StorageBadger)),
			Path:             src.str("data-path", "DATA_PATH", ""),
			MongoURI:         src.str("mongo-uri", "MONGODB_URI", ""),
			MongoDatabase:    src.str("mongo-database", "MONGODB_DATABASE", "mimirswell"),
			MongoMaxPoolSize: src.integer("", "MONGODB_MAX_POOL_SIZE", 100),
			MongoMaxRetry:    src.integer("", "MONGODB_MAX_RETRY", 3),
		},
		Auth: AuthConfig{
			JWTSecret:      src.str("jwt-secret", "JWT_SECRET", ""),
			SecureCookie:   src.boolean("", "COOKIE_SECURE", false),
			LoginPerMinute: src.integer("", "LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:     src.integer("", "LOGIN_RATE_BURST", 5),
		},
		Cron: CronConfig{
			Secret:   src.str("cron-secret", "CRON_SECRET", ""),
			Schedule: src.str("cron-schedule", "CRON_SCHEDULE", "0 9 * * *"),
			Enabled:  src.boolean("cron-enabled", "CRON_ENABLED", true),
			Timezone: src.str("timezone", "TZ_NAME", "UTC"),
		},
		Notify: NotifyConfig{
			ReminderURL:       src.str("reminder-url", "REMINDER_AUTOMATION_URL", ""),
			CompletionURL:     src.str("completion-url", "COMPLETION_AUTOMATION_URL", ""),
			DispatchPerSecond: src.float("", "REMINDER_DISPATCH_PER_SECOND", 5),
		},
		Cache: CacheConfig{
			Driver:        strings.ToLower(src.str("cache", "CACHE_DRIVER", CacheMemory)),
			RedisAddr:     src.str("redis-addr", "REDIS_ADDR", "localhost:6379"),
			RedisPassword: src.str("", "REDIS_PASSWORD", ""),
			RedisDB:       src.integer("", "REDIS_DB", 0),
		},
		Events: EventsConfig{
			NATSURL:       src.str("nats-url", "NATS_URL", ""),
			SubjectPrefix: src.str("", "NATS_SUBJECT_PREFIX", "mimirswell"),
		},
		Catalog: CatalogConfig{
			Path:  src.str("catalog-path", "CATALOG_PATH", ""),
			Watch: src.boolean("catalog-watch", "CATALOG_WATCH", true),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = src.duration("read-timeout", "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = src.duration("write-timeout", "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = src.duration("idle-timeout", "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenTTL, err = src.duration("token-ttl", "TOKEN_TTL", "168h"); err != nil {
		return nil, err
	}
	if cfg.Notify.Timeout, err = src.duration("", "NOTIFY_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Cache.HeroTTL, err = src.duration("", "HERO_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}

	if err := cfg.expandStoragePath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if cfg.Catalog.Path != "" {
		if cfg.Catalog.Path, err = expandPath(cfg.Catalog.Path, ""); err != nil {
			return nil, fmt.Errorf("invalid catalog path: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Storage.Driver {
	case StorageBadger, StorageSQLite:
		if c.Storage.Path == "" {
			return errors.New("data path cannot be empty")
		}
	case StorageMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo storage driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %q (must be badger, sqlite, or mongo)", c.Storage.Driver)
	}

	switch c.Cache.Driver {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("invalid cache driver: %q (must be memory or redis)", c.Cache.Driver)
	}

	if c.App.Environment == "production" && len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token TTL must be positive")
	}

	if _, err := time.LoadLocation(c.Cron.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Cron.Timezone, err)
	}
	if strings.TrimSpace(c.Cron.Schedule) == "" {
		return errors.New("cron schedule cannot be empty")
	}

	return nil
}

// Location returns the configured calendar timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Cron.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStoragePath defaults the embedded store location under the home dir.
func (c *Config) expandStoragePath() error {
	if c.Storage.Driver == StorageMongo {
		return nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Mimirswell", "data")
	if c.Storage.Driver == StorageSQLite {
		defaultPath = filepath.Join(homeDir, "Mimirswell", "mimirswell.db")
	}

	expanded, err := expandPath(c.Storage.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.Path = expanded
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
