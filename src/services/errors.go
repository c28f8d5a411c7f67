package services

import "errors"

var (
	// ErrMalformedInput aborts a run: the snapshot is missing required columns or cannot be read.
	ErrMalformedInput = errors.New("malformed input")
	// ErrRowSkipped marks a single row or security that did not contribute to a run.
	ErrRowSkipped = errors.New("row skipped")
	// ErrProviderUnavailable means the quote lookup failed or the symbol is unknown to the provider.
	ErrProviderUnavailable = errors.New("quote provider unavailable")
	// ErrStorageTransaction aborts a run and rolls back everything it wrote.
	ErrStorageTransaction = errors.New("storage transaction failure")
	ErrNotFound           = errors.New("not found")
	ErrRunInProgress      = errors.New("a reconciliation run is already in progress")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
