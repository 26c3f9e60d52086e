// Package entity defines the domain models for the price feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the UTC ISO-8601 layout used for every persisted timestamp
// (millisecond precision, "Z" suffix).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Observation is one persisted price reading for the tracked instrument.
// Observations are immutable once written; the latest one has the highest ID.
type Observation struct {
	ID         uint            // Assigned by the store on insert
	Price      decimal.Decimal // Price as reported by the provider
	ObservedAt string          // Store insert time, UTC ISO-8601
}

// AccessLogEntry records a single invocation of the read endpoint.
type AccessLogEntry struct {
	ID       uint
	LoggedAt string
}

// FormatTimestamp renders t in TimestampLayout after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
