// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pricewatch/internal/config"
	"pricewatch/internal/feature/price/adapters"
	"pricewatch/internal/feature/price/adapters/tiingo"
	"pricewatch/internal/feature/price/usecase"
	platformhttp "pricewatch/internal/platform/http"
	"pricewatch/internal/shared/ratelimiter"
)

// NewMarket creates a fully configured TiingoMarket with HTTP client.
func NewMarket(cfg config.Config, log *zap.Logger) *tiingo.TiingoMarket {
	tcfg := tiingo.Config{
		APIKey:   cfg.Tiingo.APIKey,
		Endpoint: cfg.Tiingo.Endpoint,
		Timeout:  cfg.Fetch.Timeout,
	}
	httpClient := platformhttp.NewHTTPClient(tcfg.Timeout)
	return tiingo.NewTiingoMarket(tcfg, httpClient, log)
}

// LimitMarket applies the hourly provider request budget when one is configured.
func LimitMarket(cfg config.Config, market usecase.MarketRepository, clock clockwork.Clock, log *zap.Logger) usecase.MarketRepository {
	if cfg.Fetch.MaxRequestsPerHour <= 0 {
		return market
	}
	log.Info("Provider request budget enabled", zap.Int("max_requests_per_hour", cfg.Fetch.MaxRequestsPerHour))
	limiter := ratelimiter.NewRateLimiter(cfg.Fetch.MaxRequestsPerHour, time.Hour, clock)
	return adapters.NewRateLimitedMarket(market, limiter, log)
}
