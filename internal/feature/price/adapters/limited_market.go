package adapters

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricewatch/internal/feature/price/domain"
	"pricewatch/internal/feature/price/usecase"
	"pricewatch/internal/shared/ratelimiter"
)

// rateLimitedMarket refuses provider requests once the request budget is spent.
// A refused call fails the cycle like any other fetch error and sends nothing.
type rateLimitedMarket struct {
	inner   usecase.MarketRepository
	limiter ratelimiter.Limiter
	log     *zap.Logger
}

var _ usecase.MarketRepository = (*rateLimitedMarket)(nil)

// NewRateLimitedMarket wraps inner with a request budget.
func NewRateLimitedMarket(inner usecase.MarketRepository, limiter ratelimiter.Limiter, log *zap.Logger) usecase.MarketRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &rateLimitedMarket{inner: inner, limiter: limiter, log: log}
}

func (m *rateLimitedMarket) GetLatestPrice(ctx context.Context) (decimal.Decimal, error) {
	if !m.limiter.Allow() {
		m.log.Warn("provider request budget exhausted, skipping fetch", zap.Duration("reset_in", m.limiter.ResetIn()))
		return decimal.Decimal{}, fmt.Errorf("%w: %w", domain.ErrFetch, ratelimiter.ErrLimitExceeded)
	}
	return m.inner.GetLatestPrice(ctx)
}
