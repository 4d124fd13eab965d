// Package common defines shared sentinel errors used across the dedup
// worker. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound means a row the repository was told exists could not
	// be read back, e.g. a conflicting content row deleted between the
	// insert and the follow-up select. Not retried.
	ErrNotFound = errors.New("not found")

	// ErrRetrieval means the source object could not be read from the
	// staging store (missing, access denied, transient network fault).
	ErrRetrieval = errors.New("source object unreadable")

	// ErrConnectivity means the ledger or a blob store could not be
	// reached. Always safe to retry.
	ErrConnectivity = errors.New("store unreachable")

	// ErrReferential means a reference insert pointed at a content row
	// that does not exist. This is an invariant violation, never retried.
	ErrReferential = errors.New("referential integrity violation")

	// ErrMalformedEvent means the trigger input was missing a bucket or
	// key and the traversal cannot start.
	ErrMalformedEvent = errors.New("malformed upload event")
)

// IsTransient reports whether err belongs to a retryable class.
// Referential and malformed-event failures are deliberately excluded.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRetrieval) || errors.Is(err, ErrConnectivity)
}
