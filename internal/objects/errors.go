package objects

import "errors"

var (
	// ErrNotFound covers both absent objects and objects the caller may not see.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidInput is returned for missing names, owners, or content.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable means the inbound content could not be read to the end.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrStorageUnavailable means the metadata repository or chunk backend rejected an operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
