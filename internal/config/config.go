// Package config loads process configuration from the environment, an optional
// .env file and an optional pricewatch.yaml.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Auth modes.
const (
	AuthModeAPIKey = "apikey"
	AuthModeJWT    = "jwt"
)

// Config holds application configuration.
type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string

	Tiingo TiingoConfig
	Fetch  FetchConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig

	CORSAllowOrigins []string
	NodeID           int64
}

type TiingoConfig struct {
	APIKey   string
	Endpoint string
}

// FetchConfig controls the fetch cycle. MaxRequestsPerHour of zero disables the request budget.
type FetchConfig struct {
	Interval           time.Duration
	Timeout            time.Duration
	MaxRequestsPerHour int
}

type DBConfig struct {
	Driver         string
	DSN            string
	Path           string
	ConnectTimeout time.Duration
	RunMigrations  bool
}

// RedisConfig is optional; an empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	CacheTTL time.Duration
}

type AuthConfig struct {
	Mode       string
	APIKey     string
	APIKeyHash string
	JWTSecret  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIINGO_ENDPOINT", "https://api.tiingo.com/iex/xyz")
	v.SetDefault("FETCH_INTERVAL", "30m")
	v.SetDefault("PROVIDER_TIMEOUT", "30s")
	v.SetDefault("TIINGO_MAX_REQUESTS_PER_HOUR", 0)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "data/data.db")
	v.SetDefault("DB_CONNECT_TIMEOUT", "60s")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("AUTH_MODE", AuthModeAPIKey)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("NODE_ID", 1)
}

// Load reads .env (if present), then pricewatch.yaml from the given
// directories (default: "." and /etc/pricewatch), then the environment.
// Environment variables win over the file. Load does not validate.
func Load(configPaths ...string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("pricewatch")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "/etc/pricewatch"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return Config{
		Env:      v.GetString("APP_ENV"),
		HTTPAddr: v.GetString("HTTP_ADDR"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Tiingo: TiingoConfig{
			APIKey:   strings.TrimSpace(v.GetString("TIINGO_API_KEY")),
			Endpoint: strings.TrimSpace(v.GetString("TIINGO_ENDPOINT")),
		},
		Fetch: FetchConfig{
			Interval:           v.GetDuration("FETCH_INTERVAL"),
			Timeout:            v.GetDuration("PROVIDER_TIMEOUT"),
			MaxRequestsPerHour: v.GetInt("TIINGO_MAX_REQUESTS_PER_HOUR"),
		},
		DB: DBConfig{
			Driver:         strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:            v.GetString("DB_DSN"),
			Path:           v.GetString("DB_PATH"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
			RunMigrations:  v.GetBool("RUN_MIGRATIONS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		Auth: AuthConfig{
			Mode:       strings.ToLower(v.GetString("AUTH_MODE")),
			APIKey:     v.GetString("API_KEY"),
			APIKeyHash: v.GetString("API_KEY_HASH"),
			JWTSecret:  v.GetString("JWT_SECRET"),
		},
		CORSAllowOrigins: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		NodeID:           v.GetInt64("NODE_ID"),
	}, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Tiingo.APIKey == "" {
		errs = append(errs, errors.New("TIINGO_API_KEY environment variable is required"))
	}
	if c.Fetch.Interval <= 0 {
		errs = append(errs, errors.New("FETCH_INTERVAL must be a positive duration"))
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must not be negative"))
	}
	if c.Fetch.MaxRequestsPerHour < 0 {
		errs = append(errs, errors.New("TIINGO_MAX_REQUESTS_PER_HOUR must not be negative"))
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres", "mysql":
		if c.DB.DSN == "" {
			errs = append(errs, fmt.Errorf("DB_DSN is required for %s", c.DB.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DB.Driver))
	}
	switch c.Auth.Mode {
	case AuthModeAPIKey:
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=jwt"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE %q is not supported", c.Auth.Mode))
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		errs = append(errs, errors.New("NODE_ID must be between 0 and 1023"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether APP_ENV selects development defaults.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
