// Package usecase implements the ingestion and retrieval logic for the tracked price.
package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricewatch/internal/feature/price/domain"
	"pricewatch/internal/feature/price/domain/entity"
)

// PriceRepository abstracts the append-only price store and its access log.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceRepository interface {
	// InsertObservation appends a new observation stamped with the current UTC time.
	InsertObservation(ctx context.Context, price decimal.Decimal) (entity.Observation, error)
	// GetLatestObservation returns the observation with the highest ID, or nil when the store is empty.
	GetLatestObservation(ctx context.Context) (*entity.Observation, error)
	// RecordAccess appends one access log entry.
	RecordAccess(ctx context.Context) (entity.AccessLogEntry, error)
}

// PriceUsecase serves the read endpoint.
type PriceUsecase struct {
	repo PriceRepository
	log  *zap.Logger
}

// NewPriceUsecase creates a new PriceUsecase.
func NewPriceUsecase(repo PriceRepository, log *zap.Logger) *PriceUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceUsecase{repo: repo, log: log}
}

// GetLatest records the access and then returns the latest observation.
// The access is recorded first, so an entry exists even when the lookup fails.
// It returns domain.ErrNoObservation when nothing has been stored yet.
func (u *PriceUsecase) GetLatest(ctx context.Context) (*entity.Observation, error) {
	if _, err := u.repo.RecordAccess(ctx); err != nil {
		return nil, err
	}
	u.log.Info("GET /price endpoint accessed - logged to database")

	obs, err := u.repo.GetLatestObservation(ctx)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, domain.ErrNoObservation
	}
	return obs, nil
}
