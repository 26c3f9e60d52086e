// Package domain defines domain-level errors for the price feature.
package domain

import "errors"

// Domain errors for ingestion and retrieval.
// Adapters wrap these with the underlying cause; callers classify with errors.Is.
var (
	// ErrFetch indicates the provider was unreachable, answered with a
	// non-success status, or returned a body that could not be used.
	ErrFetch = errors.New("price fetch failed")

	// ErrNoUsablePriceField indicates the provider response parsed but none of
	// the prioritized price fields carried a value.
	ErrNoUsablePriceField = errors.New("no usable price field in provider response")

	// ErrStorage indicates the persistence layer rejected a read or write.
	ErrStorage = errors.New("price storage failure")

	// ErrNoObservation is returned by the read path when nothing has been recorded yet.
	ErrNoObservation = errors.New("no price observation recorded")
)
