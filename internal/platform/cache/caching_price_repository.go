// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pricewatch/internal/feature/price/domain/entity"
	"pricewatch/internal/feature/price/usecase"
)

// sharedQueryTimeout bounds a store lookup shared by concurrent cache misses.
const sharedQueryTimeout = 5 * time.Second

// CachingPriceRepository decorates a PriceRepository with a Redis copy of the latest observation.
//
// Inserts write the new observation through to the cache. Readers only fill
// an empty key (SETNX), so a slow reader can never replace a newer value
// written by the ingest path. The access log always goes to the inner store.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	log       *zap.Logger
	group     singleflight.Group
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// cachedObservation is the Redis representation of entity.Observation.
type cachedObservation struct {
	ID         uint   `json:"id"`
	Price      string `json:"price"`
	ObservedAt string `json:"observed_at"`
}

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "price".
// A nil rdb disables caching.
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string, log *zap.Logger) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "price"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		log:       log.Named("cache"),
	}
}

// InsertObservation stores in the inner repository, then writes the new latest through to Redis.
func (c *CachingPriceRepository) InsertObservation(ctx context.Context, price decimal.Decimal) (entity.Observation, error) {
	obs, err := c.inner.InsertObservation(ctx, price)
	if err != nil {
		return entity.Observation{}, err
	}
	if c.rdb == nil {
		return obs, nil
	}

	key := c.latestKey()
	b, _ := json.Marshal(toCached(obs))
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.Warn("cache write-through failed, invalidating", zap.String("key", key), zap.Error(err))
		// Best effort: a stale key would otherwise outlive the insert
		_ = c.rdb.Del(ctx, key).Err()
	}
	return obs, nil
}

// GetLatestObservation checks Redis first, then falls back to the inner repository.
// An empty store is never cached.
func (c *CachingPriceRepository) GetLatestObservation(ctx context.Context) (*entity.Observation, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.GetLatestObservation(ctx)
	}

	key := c.latestKey()

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		if obs, err := fromCached(b); err == nil {
			return obs, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	// 2) Fallback to database; concurrent misses share one query.
	// The query is detached from the caller that started it; each caller
	// stops waiting on its own ctx.
	ch := c.group.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedQueryTimeout)
		defer cancel()

		obs, err := c.inner.GetLatestObservation(qctx)
		if err != nil || obs == nil {
			return obs, err
		}
		// 3) Fill an empty key only (best effort)
		if b, err := json.Marshal(toCached(*obs)); err == nil {
			_ = c.rdb.SetNX(qctx, key, b, c.ttl).Err()
		}
		return obs, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	obs, _ := res.Val.(*entity.Observation)
	if obs == nil {
		return nil, nil
	}
	out := *obs
	return &out, nil
}

// RecordAccess is not cached; every request must reach the store.
func (c *CachingPriceRepository) RecordAccess(ctx context.Context) (entity.AccessLogEntry, error) {
	return c.inner.RecordAccess(ctx)
}

func (c *CachingPriceRepository) latestKey() string {
	return safe(c.namespace) + ":latest"
}

func toCached(o entity.Observation) cachedObservation {
	return cachedObservation{ID: o.ID, Price: o.Price.String(), ObservedAt: o.ObservedAt}
}

func fromCached(b []byte) (*entity.Observation, error) {
	var c cachedObservation
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return nil, err
	}
	return &entity.Observation{ID: c.ID, Price: price, ObservedAt: c.ObservedAt}, nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
