// Package ledger is the relational record of deduplicated content: one
// content row per distinct digest, any number of reference rows pointing
// at it. The digest uniqueness constraint lives in the database, not in
// application locks, so concurrent workers on separate hosts race safely.
package ledger

// Content represents one distinct piece of archived content. Created
// exactly once per digest, never mutated, never deleted by this worker.
type Content struct {
	ContentID string
	Digest    string
	Algorithm string
}

// Reference represents one logical upload event pointing at a Content
// row. Many references may share one content row; folder is optional
// provenance (empty string is stored as NULL).
type Reference struct {
	ReferenceID string
	ContentID   string
	OwnerID     string
	Filename    string
	Folder      string
}
