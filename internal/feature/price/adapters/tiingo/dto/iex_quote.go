// Package dto defines the data transfer objects for Tiingo API responses.
package dto

import "github.com/shopspring/decimal"

// IEXQuote is one element of the JSON array returned by the Tiingo IEX endpoint.
// Price fields are nullable: Tiingo sends null outside market hours.
type IEXQuote struct {
	Ticker    string              `json:"ticker"`
	Timestamp string              `json:"timestamp"`
	Last      decimal.NullDecimal `json:"last"`
	TngoLast  decimal.NullDecimal `json:"tngoLast"`
	PrevClose decimal.NullDecimal `json:"prevClose"`
}
