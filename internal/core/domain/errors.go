package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrCacheUnavailable    = errors.New("cache backend unavailable")
	ErrCatalogUnavailable  = errors.New("catalog unavailable")
	ErrNoProfile           = errors.New("no taste profile")
	ErrInvalidQuery        = errors.New("invalid query")
)

// AdapterError records which adapter failed and for which kind.
type AdapterError struct {
	Adapter string
	Kind    Kind
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s (%s): %v", e.Adapter, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError wraps err unless it is nil.
func NewAdapterError(adapter string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Adapter: adapter, Kind: kind, Err: err}
}
