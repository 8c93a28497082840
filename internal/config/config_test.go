package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{Driver: StorageBadger, Path: "/var/lib/mimirswell"},
		Auth:    AuthConfig{TokenTTL: time.Hour},
		Cron:    CronConfig{Schedule: "0 9 * * *", Timezone: "UTC"},
		Cache:   CacheConfig{Driver: CacheMemory},
	}
}

// emptyEnvFile points Load at a .env that does not exist so the developer's
// own file never leaks into tests.
func emptyEnvFile(t *testing.T) string {
	return "--env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", false}, // no JWT secret
		{"test", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_ProductionSecret(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "production"
	cfg.Auth.JWTSecret = "short"
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Drivers(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Storage.Driver = StorageMongo
	assert.Error(t, cfg.Validate(), "mongo requires a URI")
	cfg.Storage.MongoURI = "mongodb://localhost:27017"
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Cache.Driver = "memcached"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Timezone(t *testing.T) {
	cfg := validConfig()
	cfg.Cron.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg.Cron.Timezone = "Europe/Berlin"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{emptyEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageBadger, cfg.Storage.Driver)
	assert.True(t, filepath.IsAbs(cfg.Storage.Path))
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "0 9 * * *", cfg.Cron.Schedule)
	assert.Equal(t, CacheMemory, cfg.Cache.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Cache.HeroTTL)
	assert.Empty(t, cfg.Events.NATSURL)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"SERVER_PORT=7000\nAPP_URL=https://dotenv.example.com/\nCRON_SECRET=from-file\n# comment\nLOG_LEVEL=debug\n",
	), 0o600))

	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CRON_SECRET", "")
	t.Setenv("APP_URL", "")

	cfg, err := Load([]string{"--env-file=" + envPath, "--log-level=warn"})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port, "env beats .env")
	assert.Equal(t, "warn", cfg.Logger.Level, "flag beats .env")
	assert.Equal(t, "https://dotenv.example.com", cfg.App.URL, ".env used and trailing slash trimmed")
	assert.Equal(t, "from-file", cfg.Cron.Secret)

	// The .env file never mutates the process environment.
	assert.Empty(t, os.Getenv("APP_URL"))
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "a week")
	_, err := Load([]string{emptyEnvFile(t)})
	assert.Error(t, err)
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com,")
	cfg, err := Load([]string{emptyEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.Server.CORSOrigins)
}
