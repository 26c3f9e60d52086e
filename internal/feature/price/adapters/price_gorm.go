// Package adapters provides the repository implementations for the price feature.
package adapters

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"pricewatch/internal/feature/price/domain"
	"pricewatch/internal/feature/price/domain/entity"
	"pricewatch/internal/feature/price/usecase"
)

// priceGorm is the gorm implementation of PriceRepository.
// Rows are only ever inserted; atomicity of single-row inserts and reads is
// left to the database engine.
type priceGorm struct {
	db    *gorm.DB
	clock clockwork.Clock
}

var _ usecase.PriceRepository = (*priceGorm)(nil)

// NewPriceRepository creates a gorm-backed price store. A nil clock uses the real clock.
func NewPriceRepository(db *gorm.DB, clock clockwork.Clock) *priceGorm {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &priceGorm{db: db, clock: clock}
}

// PriceModel is one row of the prices table.
type PriceModel struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"`
	Price     storedPrice `gorm:"not null"`
	Timestamp string      `gorm:"size:32;not null"`
}

// storedPrice is a decimal whose column type depends on the engine.
// Postgres numeric has no fixed precision; SQLite keeps the decimal text,
// since its numeric affinity rounds to 15 significant digits. MySQL has no
// unbounded exact type, so it gets the widest DECIMAL it supports.
type storedPrice struct {
	decimal.Decimal
}

func (storedPrice) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "numeric"
	case "mysql":
		return "decimal(65,30)"
	default:
		return "text"
	}
}

func (PriceModel) TableName() string {
	return "prices"
}

// AccessLogModel is one row of the price_endpoint_logs table.
type AccessLogModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Timestamp string `gorm:"size:32;not null"`
}

func (AccessLogModel) TableName() string {
	return "price_endpoint_logs"
}

// Models lists the tables owned by the price store, for migrations.
func Models() []any {
	return []any{&PriceModel{}, &AccessLogModel{}}
}

func toEntity(m PriceModel) entity.Observation {
	return entity.Observation{
		ID:         m.ID,
		Price:      m.Price.Decimal,
		ObservedAt: m.Timestamp,
	}
}

func (r *priceGorm) InsertObservation(ctx context.Context, price decimal.Decimal) (entity.Observation, error) {
	m := PriceModel{
		Price:     storedPrice{price},
		Timestamp: entity.FormatTimestamp(r.clock.Now()),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return entity.Observation{}, fmt.Errorf("%w: insert observation: %w", domain.ErrStorage, err)
	}
	return toEntity(m), nil
}

func (r *priceGorm) GetLatestObservation(ctx context.Context) (*entity.Observation, error) {
	var rows []PriceModel
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: read latest observation: %w", domain.ErrStorage, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	obs := toEntity(rows[0])
	return &obs, nil
}

func (r *priceGorm) RecordAccess(ctx context.Context) (entity.AccessLogEntry, error) {
	m := AccessLogModel{Timestamp: entity.FormatTimestamp(r.clock.Now())}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return entity.AccessLogEntry{}, fmt.Errorf("%w: record access: %w", domain.ErrStorage, err)
	}
	return entity.AccessLogEntry{ID: m.ID, LoggedAt: m.Timestamp}, nil
}
