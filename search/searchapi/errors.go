package searchapi

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaAlreadyExists = errors.New("searchapi: search index schema already exists")
	ErrStorageFailure      = errors.New("searchapi: storage failure")
	ErrMalformedContent    = errors.New("searchapi: malformed document content")

	ErrInvalidOffset    = errors.New("searchapi: query offset must not be negative")
	ErrInvalidLimit     = errors.New("searchapi: query limit must be positive")
	ErrUnsupportedValue = errors.New("searchapi: unsupported attribute value")
	ErrNilDocument      = errors.New("searchapi: nil document")
)

// StorageFailure wraps an error raised by the backing store.
// Both ErrStorageFailure and the original cause stay reachable through errors.Is/As.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// MalformedContent wraps a decoding problem of a stored content blob.
func MalformedContent(detail string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedContent, detail, err)
	}
	return fmt.Errorf("%w: %s", ErrMalformedContent, detail)
}
