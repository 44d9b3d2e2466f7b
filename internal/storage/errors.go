package storage

import "errors"

// Sentinel errors shared by every store backend. Backends wrap driver errors
// into these so callers can match with errors.Is.
var (
	// ErrNotFound: no snapshot or record matches the lookup.
	ErrNotFound = errors.New("storage: not found")

	// ErrDuplicateKey: the candle, snapshot or record key is already stored.
	// Stores are append-only.
	ErrDuplicateKey = errors.New("storage: duplicate key")

	// ErrInvalidInput: a required key field (batch id, token id, variant) is empty.
	ErrInvalidInput = errors.New("storage: missing key field")
)
