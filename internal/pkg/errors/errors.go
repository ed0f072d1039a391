// Package errors holds the sentinel errors shared across layers.
package errors

import "errors"

var (
	// ErrInvalidInput is returned when a caller-supplied value fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage is returned when the underlying store fails.
	ErrStorage = errors.New("storage failure")

	// ErrNotFound is returned when a record or cache key does not exist.
	ErrNotFound = errors.New("record not found")
)

// Kind values reported in public results.
const (
	KindInvalidInput   = "invalid_input"
	KindStorageFailure = "storage_failure"
)

// KindOf classifies err for a public result. Anything that is not an input
// error is reported as a storage failure.
func KindOf(err error) string {
	if errors.Is(err, ErrInvalidInput) {
		return KindInvalidInput
	}
	return KindStorageFailure
}
