package tiingo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricewatch/internal/feature/price/adapters/tiingo/dto"
	"pricewatch/internal/feature/price/domain"
	"pricewatch/internal/feature/price/usecase"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 1 << 20

// HTTPClient is the subset of *http.Client used by TiingoMarket.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TiingoMarket is a MarketRepository that reads the current price from Tiingo IEX.
type TiingoMarket struct {
	cfg    Config
	client HTTPClient
	log    *zap.Logger
}

// Compile-time check that TiingoMarket implements MarketRepository.
var _ usecase.MarketRepository = (*TiingoMarket)(nil)

// NewTiingoMarket creates a TiingoMarket. The endpoint and credential are fixed for its lifetime.
func NewTiingoMarket(cfg Config, client HTTPClient, log *zap.Logger) *TiingoMarket {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TiingoMarket{cfg: cfg, client: client, log: log.Named("tiingo")}
}

// GetLatestPrice issues one request and extracts the price from the first quote.
// Every failure wraps domain.ErrFetch or domain.ErrNoUsablePriceField. There is no retry.
func (t *TiingoMarket) GetLatestPrice(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.Endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: build request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+t.cfg.APIKey)

	t.log.Info("calling tiingo", zap.String("endpoint", t.cfg.Endpoint))
	res, err := t.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			t.log.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decimal.Decimal{}, fmt.Errorf("%w: tiingo http %d %s", domain.ErrFetch, res.StatusCode, http.StatusText(res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: read body: %w", domain.ErrFetch, err)
	}
	t.log.Debug("received response from tiingo", zap.ByteString("api_response", body))

	quote, err := firstQuote(body)
	if err != nil {
		return decimal.Decimal{}, err
	}

	price, field, err := ExtractPrice(quote)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w (ticker %q)", err, quote.Ticker)
	}
	t.log.Debug("price extracted", zap.String("field", field), zap.String("price", price.String()))
	return price, nil
}

// firstQuote decodes a JSON array of quotes and returns its first element.
func firstQuote(body []byte) (dto.IEXQuote, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return dto.IEXQuote{}, fmt.Errorf("%w: empty response body", domain.ErrFetch)
	}
	if body[0] != '[' {
		return dto.IEXQuote{}, fmt.Errorf("%w: response is not an array", domain.ErrFetch)
	}

	var quotes []dto.IEXQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return dto.IEXQuote{}, fmt.Errorf("%w: decode response: %w", domain.ErrFetch, err)
	}
	if len(quotes) == 0 {
		return dto.IEXQuote{}, fmt.Errorf("%w: empty quote array", domain.ErrFetch)
	}
	return quotes[0], nil
}
