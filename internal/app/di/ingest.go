package di

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"pricewatch/internal/config"
	"pricewatch/internal/feature/price/usecase"
)

// NewIngestUsecase wires a fetch cycle with snowflake run ids.
// metrics may be nil.
func NewIngestUsecase(cfg config.Config, market usecase.MarketRepository, prices usecase.PriceRepository, metrics usecase.CycleMetrics, log *zap.Logger) (*usecase.IngestUsecase, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.NodeID, err)
	}
	return usecase.NewIngestUsecase(market, prices, log, node, metrics, cfg.Fetch.Timeout), nil
}
