package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pricewatch/internal/feature/price/domain/entity"
)

// mockMarketRepository is a mock implementation of the MarketRepository interface.
type mockMarketRepository struct {
	GetLatestPriceFunc  func(ctx context.Context) (decimal.Decimal, error)
	GetLatestPriceCalls int
}

func (m *mockMarketRepository) GetLatestPrice(ctx context.Context) (decimal.Decimal, error) {
	m.GetLatestPriceCalls++
	if m.GetLatestPriceFunc != nil {
		return m.GetLatestPriceFunc(ctx)
	}
	return decimal.Decimal{}, errors.New("GetLatestPriceFunc is not implemented")
}

// mockPriceRepository is a mock implementation of the PriceRepository interface.
// Calls records the order in which methods were invoked.
type mockPriceRepository struct {
	InsertObservationFunc    func(ctx context.Context, price decimal.Decimal) (entity.Observation, error)
	GetLatestObservationFunc func(ctx context.Context) (*entity.Observation, error)
	RecordAccessFunc         func(ctx context.Context) (entity.AccessLogEntry, error)
	Calls                    []string
}

func (m *mockPriceRepository) InsertObservation(ctx context.Context, price decimal.Decimal) (entity.Observation, error) {
	m.Calls = append(m.Calls, "InsertObservation")
	if m.InsertObservationFunc != nil {
		return m.InsertObservationFunc(ctx, price)
	}
	return entity.Observation{}, errors.New("InsertObservationFunc is not implemented")
}

func (m *mockPriceRepository) GetLatestObservation(ctx context.Context) (*entity.Observation, error) {
	m.Calls = append(m.Calls, "GetLatestObservation")
	if m.GetLatestObservationFunc != nil {
		return m.GetLatestObservationFunc(ctx)
	}
	return nil, errors.New("GetLatestObservationFunc is not implemented")
}

func (m *mockPriceRepository) RecordAccess(ctx context.Context) (entity.AccessLogEntry, error) {
	m.Calls = append(m.Calls, "RecordAccess")
	if m.RecordAccessFunc != nil {
		return m.RecordAccessFunc(ctx)
	}
	return entity.AccessLogEntry{}, errors.New("RecordAccessFunc is not implemented")
}

// memoryPriceRepository is an in-memory PriceRepository with monotonically increasing ids.
type memoryPriceRepository struct {
	mu       sync.Mutex
	rows     []entity.Observation
	accesses int
	now      time.Time
}

func (m *memoryPriceRepository) InsertObservation(_ context.Context, price decimal.Decimal) (entity.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(time.Minute)
	obs := entity.Observation{
		ID:         uint(len(m.rows) + 1),
		Price:      price,
		ObservedAt: entity.FormatTimestamp(m.now),
	}
	m.rows = append(m.rows, obs)
	return obs, nil
}

func (m *memoryPriceRepository) GetLatestObservation(context.Context) (*entity.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) == 0 {
		return nil, nil
	}
	obs := m.rows[len(m.rows)-1]
	return &obs, nil
}

func (m *memoryPriceRepository) RecordAccess(context.Context) (entity.AccessLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accesses++
	return entity.AccessLogEntry{ID: uint(m.accesses), LoggedAt: entity.FormatTimestamp(m.now)}, nil
}

// mockCycleMetrics records every observed outcome.
type mockCycleMetrics struct {
	Outcomes []string
}

func (m *mockCycleMetrics) ObserveCycle(outcome string, _ time.Duration) {
	m.Outcomes = append(m.Outcomes, outcome)
}
