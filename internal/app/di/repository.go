package di

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/internal/config"
	"pricewatch/internal/feature/price/adapters"
	"pricewatch/internal/feature/price/usecase"
	"pricewatch/internal/platform/cache"
	platformdb "pricewatch/internal/platform/db"
	platformredis "pricewatch/internal/platform/redis"
)

// OpenDB connects to the configured database and migrates the price tables.
func OpenDB(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	return platformdb.Open(platformdb.Config{
		Driver:         cfg.DB.Driver,
		DSN:            cfg.DB.DSN,
		Path:           cfg.DB.Path,
		ConnectTimeout: cfg.DB.ConnectTimeout,
		RunMigrations:  cfg.DB.RunMigrations,
	}, log, adapters.Models()...)
}

// NewRedis returns a connected client, or nil when Redis is not configured or unreachable.
func NewRedis(ctx context.Context, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Info("REDIS_ADDR not set. Running without cache.")
		return nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, log)
	if err != nil {
		log.Warn("Redis unavailable. Running without cache.", zap.Error(err))
		return nil
	}
	return rdb
}

// NewPriceRepository creates the PriceRepository implementation.
// If Redis is available, the gorm store is wrapped with the latest-price cache.
func NewPriceRepository(db *gorm.DB, rdb *redis.Client, clock clockwork.Clock, cfg config.Config, log *zap.Logger) usecase.PriceRepository {
	store := adapters.NewPriceRepository(db, clock)
	if rdb == nil {
		return store
	}
	ttl := cache.EffectiveTTL(cfg.Redis.CacheTTL, cfg.Fetch.Interval)
	return cache.NewCachingPriceRepository(rdb, ttl, store, "price", log)
}
