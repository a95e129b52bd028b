// Package pipeline defines the error taxonomy shared by the reconciliation
// and thumbnail stages.
package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups whose subject row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransport marks object-store and network failures: listings,
	// downloads, uploads, and URL signing.
	ErrTransport = errors.New("transport failure")

	// ErrExtraction marks frame-extraction failures: probe errors, tool
	// errors, and missing or empty output images.
	ErrExtraction = errors.New("extraction failure")

	// ErrPersistence marks database write failures.
	ErrPersistence = errors.New("persistence failure")

	// ErrConfiguration marks invalid or missing configuration. It is fatal
	// at startup, before any project is processed.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap ties an error to a taxonomy marker with operation context. Both the
// marker and the cause stay matchable through errors.Is.
func Wrap(marker error, operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", marker, operation)
	}
	return fmt.Errorf("%w: %s: %w", marker, operation, err)
}

// Class returns the taxonomy name for an error, for log fields. Errors from
// outside the taxonomy report as "unknown".
func Class(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}
