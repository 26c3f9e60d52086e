package tiingo

import (
	"github.com/shopspring/decimal"

	"pricewatch/internal/feature/price/adapters/tiingo/dto"
	"pricewatch/internal/feature/price/domain"
)

// PriceExtractor reads one candidate price field from a quote.
type PriceExtractor struct {
	Field   string
	Extract func(q dto.IEXQuote) decimal.NullDecimal
}

// PriceFieldPriority is the order in which quote fields are consulted.
// The first field that is present and non-null is used.
var PriceFieldPriority = []PriceExtractor{
	{Field: "last", Extract: func(q dto.IEXQuote) decimal.NullDecimal { return q.Last }},
	{Field: "tngoLast", Extract: func(q dto.IEXQuote) decimal.NullDecimal { return q.TngoLast }},
	{Field: "prevClose", Extract: func(q dto.IEXQuote) decimal.NullDecimal { return q.PrevClose }},
}

// ExtractPrice applies PriceFieldPriority to q and returns the price with the
// name of the field it came from.
func ExtractPrice(q dto.IEXQuote) (decimal.Decimal, string, error) {
	return extractWith(PriceFieldPriority, q)
}

func extractWith(chain []PriceExtractor, q dto.IEXQuote) (decimal.Decimal, string, error) {
	for _, e := range chain {
		if v := e.Extract(q); v.Valid {
			return v.Decimal, e.Field, nil
		}
	}
	return decimal.Decimal{}, "", domain.ErrNoUsablePriceField
}
