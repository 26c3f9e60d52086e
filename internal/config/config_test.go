package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Tiingo: TiingoConfig{APIKey: "k"},
		Fetch:  FetchConfig{Interval: 30 * time.Minute, Timeout: 30 * time.Second},
		DB:     DBConfig{Driver: "sqlite", Path: "data/data.db"},
		Auth:   AuthConfig{Mode: AuthModeAPIKey},
		NodeID: 1,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TIINGO_API_KEY", "  token-123  ")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "token-123", cfg.Tiingo.APIKey, "key is trimmed")
	assert.Equal(t, "https://api.tiingo.com/iex/xyz", cfg.Tiingo.Endpoint)
	assert.Equal(t, 30*time.Minute, cfg.Fetch.Interval)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "data/data.db", cfg.DB.Path)
	assert.True(t, cfg.DB.RunMigrations)
	assert.Equal(t, AuthModeAPIKey, cfg.Auth.Mode)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Equal(t, int64(1), cfg.NodeID)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TIINGO_API_KEY", "k")
	t.Setenv("FETCH_INTERVAL", "90s")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/prices")
	t.Setenv("AUTH_MODE", "JWT")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Fetch.Interval)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, AuthModeJWT, cfg.Auth.Mode)
	assert.False(t, cfg.DB.RunMigrations)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "tiingo_api_key: from-file\nfetch_interval: 5m\nhttp_addr: \":9090\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricewatch.yaml"), []byte(yaml), 0o600))
	t.Setenv("HTTP_ADDR", ":7070")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Tiingo.APIKey)
	assert.Equal(t, 5*time.Minute, cfg.Fetch.Interval)
	assert.Equal(t, ":7070", cfg.HTTPAddr, "environment wins over the file")
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricewatch.yaml"), []byte("a: [unterminated"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing tiingo key", func(c *Config) { c.Tiingo.APIKey = "" }, "TIINGO_API_KEY"},
		{"zero interval", func(c *Config) { c.Fetch.Interval = 0 }, "FETCH_INTERVAL"},
		{"negative timeout", func(c *Config) { c.Fetch.Timeout = -time.Second }, "PROVIDER_TIMEOUT"},
		{"negative request budget", func(c *Config) { c.Fetch.MaxRequestsPerHour = -1 }, "TIINGO_MAX_REQUESTS_PER_HOUR"},
		{"sqlite without path", func(c *Config) { c.DB.Path = "" }, "DB_PATH"},
		{"postgres without dsn", func(c *Config) { c.DB.Driver = "postgres" }, "DB_DSN"},
		{"unknown driver", func(c *Config) { c.DB.Driver = "oracle" }, "DB_DRIVER"},
		{"jwt without secret", func(c *Config) { c.Auth.Mode = AuthModeJWT }, "JWT_SECRET"},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "basic" }, "AUTH_MODE"},
		{"node id out of range", func(c *Config) { c.NodeID = 1024 }, "NODE_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Validate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Tiingo.APIKey = ""
	cfg.Fetch.Interval = 0

	err := cfg.Validate()

	assert.ErrorContains(t, err, "TIINGO_API_KEY")
	assert.ErrorContains(t, err, "FETCH_INTERVAL")
}
