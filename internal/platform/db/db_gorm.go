// Package db opens the gorm connection for the configured SQL driver.
package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// sqliteBusyTimeoutMs lets a reader wait out the single writer instead of failing with SQLITE_BUSY.
const sqliteBusyTimeoutMs = 5000

// retryInterval is the pause between connection attempts. Tests shorten it.
var retryInterval = 3 * time.Second

// Config selects and tunes the database connection.
type Config struct {
	Driver         string
	DSN            string        // postgres / mysql
	Path           string        // sqlite file
	ConnectTimeout time.Duration // total time spent retrying the first connection
	RunMigrations  bool
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

var gormConfig = &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

// OpenerFor returns the Opener for a driver name.
func OpenerFor(driver string) (Opener, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormConfig)
		}, nil
	case DriverPostgres:
		return openPostgres, nil
	case DriverMySQL:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(gmysql.Open(dsn), gormConfig)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// openPostgres parses the DSN with pgx and hands gorm a database/sql pool backed by the pgx driver.
func openPostgres(dsn string) (*gorm.DB, error) {
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	sqlDB := stdlib.OpenDB(*pgxCfg)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// BuildDSN returns the connection string for cfg.Driver.
// SQLite enables WAL so readers are not blocked by the ingest writer.
func BuildDSN(cfg Config) string {
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, sqliteBusyTimeoutMs)
	default:
		return cfg.DSN
	}
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, lastErr)
		}
		time.Sleep(min(retryInterval, remaining))
	}
}

// Open connects with retry and, when enabled, migrates models.
func Open(cfg Config, log *zap.Logger, models ...any) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	open, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	cfg.Driver = strings.ToLower(cfg.Driver)
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Driver == DriverSQLite {
		if cfg.Path == "" {
			return nil, errors.New("sqlite requires DB_PATH")
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		log.Info("using sqlite", zap.String("path", cfg.Path))
	} else if cfg.DSN == "" {
		return nil, fmt.Errorf("%s requires DB_DSN", cfg.Driver)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, func(dsn string) (*gorm.DB, error) {
		db, err := open(dsn)
		if err != nil {
			log.Warn("DB connect failed, retrying", zap.String("driver", cfg.Driver), zap.Error(err))
		}
		return db, err
	})
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		log.Info("database migrated", zap.Int("models", len(models)))
	}
	return db, nil
}
