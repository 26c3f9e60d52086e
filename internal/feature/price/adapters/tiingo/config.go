// Package tiingo provides a client for the Tiingo IEX market-data API.
package tiingo

import "time"

// DefaultEndpoint is the IEX top-of-book endpoint for the tracked ticker.
const DefaultEndpoint = "https://api.tiingo.com/iex/xyz"

// Config holds configuration for the Tiingo API client.
type Config struct {
	APIKey   string        // Token sent as "Authorization: Token <APIKey>"
	Endpoint string        // Full request URL, including the ticker
	Timeout  time.Duration // HTTP request timeout
}
