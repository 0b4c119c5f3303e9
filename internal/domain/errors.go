package domain

import "errors"

var (
	// ErrInsufficientData means a method received fewer observations than it needs.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNumericInstability means a fit diverged or produced non-finite values.
	ErrNumericInstability = errors.New("numeric instability")
	// ErrProductNotFound is returned by product lookups for unknown products.
	ErrProductNotFound = errors.New("product not found")
	// ErrUpstreamUnavailable wraps failures of an external data source.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
