// Package handler provides the HTTP handlers of the price feature.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pricewatch/internal/feature/price/domain"
	"pricewatch/internal/feature/price/domain/entity"
	"pricewatch/internal/feature/price/transport/http/dto"
)

// Error messages returned to clients.
const (
	msgNoData        = "No stock price data available"
	msgLookupFailure = "Failed to retrieve stock price"
)

// PriceUsecase defines the read side used by the handler.
// Following Go convention: interfaces are defined by the consumer (handler).
type PriceUsecase interface {
	GetLatest(ctx context.Context) (*entity.Observation, error)
}

// PriceHandler serves the latest stored price.
type PriceHandler struct {
	uc  PriceUsecase
	log *zap.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(uc PriceUsecase, log *zap.Logger) *PriceHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceHandler{uc: uc, log: log}
}

// GetLatest returns the most recent observation.
//
// GET /price
func (h *PriceHandler) GetLatest(c *gin.Context) {
	obs, err := h.uc.GetLatest(c.Request.Context())
	switch {
	case errors.Is(err, domain.ErrNoObservation):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msgNoData})
		return
	case err != nil:
		h.log.Error("Error retrieving stock price", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msgLookupFailure})
		return
	}

	c.JSON(http.StatusOK, dto.PriceResponse{
		Price:     json.Number(obs.Price.String()),
		Timestamp: obs.ObservedAt,
	})
}
