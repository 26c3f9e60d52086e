package dto

import "encoding/json"

// PriceResponse is the body of a successful GET /price.
// Price is a JSON number rendered from the stored decimal without float rounding.
type PriceResponse struct {
	Price     json.Number `json:"price"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
