package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricewatch/internal/feature/price/domain"
	"pricewatch/internal/feature/price/domain/entity"
)

// Cycle outcomes reported to CycleMetrics and in log lines.
const (
	OutcomeSuccess       = "success"
	OutcomeFetch         = "fetch"
	OutcomeNoUsablePrice = "no_usable_price"
	OutcomeStorage       = "storage"
	OutcomeTimeout       = "timeout"
	OutcomeUnknown       = "unknown"
)

// MarketRepository retrieves the current price of the tracked instrument from
// an external provider. One call is one provider request.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetLatestPrice(ctx context.Context) (decimal.Decimal, error)
}

// CycleMetrics receives the outcome and duration of every fetch cycle.
type CycleMetrics interface {
	ObserveCycle(outcome string, d time.Duration)
}

// IngestUsecase runs fetch cycles: one provider request, then one insert on success.
// A failed cycle is logged and never retried; the caller decides when the next one runs.
type IngestUsecase struct {
	market  MarketRepository
	prices  PriceRepository
	log     *zap.Logger
	ids     *snowflake.Node
	metrics CycleMetrics
	timeout time.Duration
}

// NewIngestUsecase creates a new IngestUsecase.
// timeout bounds each provider request; zero disables the bound. metrics may be nil.
func NewIngestUsecase(market MarketRepository, prices PriceRepository, log *zap.Logger, ids *snowflake.Node, metrics CycleMetrics, timeout time.Duration) *IngestUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestUsecase{
		market:  market,
		prices:  prices,
		log:     log.Named("ingest"),
		ids:     ids,
		metrics: metrics,
		timeout: timeout,
	}
}

// RunCycle performs one fetch-and-persist cycle and returns the stored observation.
// Errors are already logged when they are returned.
func (iu *IngestUsecase) RunCycle(ctx context.Context) (entity.Observation, error) {
	start := time.Now()
	log := iu.log.With(zap.String("run_id", iu.runID()))
	log.Info("price.cycle.start")

	obs, err := iu.fetchAndStore(ctx, log)
	outcome := ClassifyCycleError(err)
	if iu.metrics != nil {
		iu.metrics.ObserveCycle(outcome, time.Since(start))
	}

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if err != nil {
		log.Error("price.cycle.failed", append(fields, zap.String("error_type", outcome), zap.Error(err))...)
		return entity.Observation{}, err
	}
	log.Info("price.cycle.finish", append(fields,
		zap.Uint("observation_id", obs.ID),
		zap.String("price", obs.Price.String()),
		zap.String("observed_at", obs.ObservedAt),
	)...)
	return obs, nil
}

// Tick adapts RunCycle to a scheduler job.
func (iu *IngestUsecase) Tick(ctx context.Context) error {
	_, err := iu.RunCycle(ctx)
	return err
}

func (iu *IngestUsecase) fetchAndStore(ctx context.Context, log *zap.Logger) (entity.Observation, error) {
	price, err := iu.fetch(ctx)
	if err != nil {
		return entity.Observation{}, err
	}
	log.Debug("price.cycle.fetched", zap.String("price", price.String()))

	// a cancelled cycle must not write
	if err := ctx.Err(); err != nil {
		return entity.Observation{}, err
	}
	return iu.prices.InsertObservation(ctx, price)
}

// fetch bounds the provider request by the configured timeout. The insert
// that follows is not counted against it.
func (iu *IngestUsecase) fetch(ctx context.Context) (decimal.Decimal, error) {
	if iu.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, iu.timeout)
		defer cancel()
	}
	return iu.market.GetLatestPrice(ctx)
}

func (iu *IngestUsecase) runID() string {
	if iu.ids == nil {
		return ""
	}
	return iu.ids.Generate().String()
}

// ClassifyCycleError maps a cycle error to one of the Outcome* constants.
func ClassifyCycleError(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return OutcomeTimeout
	case errors.Is(err, domain.ErrNoUsablePriceField):
		return OutcomeNoUsablePrice
	case errors.Is(err, domain.ErrStorage):
		return OutcomeStorage
	case errors.Is(err, domain.ErrFetch):
		return OutcomeFetch
	default:
		return OutcomeUnknown
	}
}
