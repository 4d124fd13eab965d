package ledger

import (
	"context"
)

// Repository is the storage contract of the dedup ledger.
//
// FindOrCreateContent must be safe under concurrent callers racing with
// the same digest: exactly one content row is created, every caller gets
// the same content id, and exactly one caller observes existed == false.
// Implementations rely on a UNIQUE constraint on digest; a read-then-write
// without the constraint is incorrect under concurrency.
type Repository interface {
	// FindOrCreateContent returns the content id for the digest, creating
	// the row if this is the first observation. existed reports whether
	// the row was already present.
	FindOrCreateContent(ctx context.Context, digest, algorithm string) (contentID string, existed bool, err error)

	// CreateReference inserts a reference row and returns its id. The
	// referenced content row must exist; a violation is surfaced as
	// common.ErrReferential and must not be retried.
	CreateReference(ctx context.Context, ref *Reference) (referenceID string, err error)
}
