// Package workflow sequences one upload event through the dedup steps:
// hash the staging object, record it in the ledger, archive it on first
// observation, evict the staging copy. Each traversal is an independent
// unit of work; the only cross-traversal coordination is the ledger's
// uniqueness constraint.
package workflow

import "strings"

// Event is the trigger input: one object-created notification from the
// staging bucket.
type Event struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// SplitKey derives provenance metadata from an object key. The key is
// split on the first path separator only: "vacation/2024/photo.jpg"
// yields folder "vacation" and filename "2024/photo.jpg"; a key without
// a separator has no folder.
func SplitKey(key string) (folder, filename string) {
	if before, after, found := strings.Cut(key, "/"); found {
		return before, after
	}
	return "", key
}

// Outcome is the audit record of one traversal, the completion output an
// operator or downstream consumer reads to confirm what happened.
type Outcome struct {
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	Folder      string `json:"folder,omitempty"`
	Bucket      string `json:"bucket"`
	Digest      string `json:"hash"`
	Algorithm   string `json:"algorithm"`
	Exists      bool   `json:"exists"`
	ContentID   string `json:"content_id,omitempty"`
	ReferenceID string `json:"reference_id,omitempty"`
	Archived    bool   `json:"copied"`
	Deleted     bool   `json:"deleted"`
}

// State names one node of the traversal state machine.
type State string

const (
	StateStart     State = "start"
	StateHashing   State = "hashing"
	StateRecording State = "recording"
	StateBranch    State = "branch"
	StateArchiving State = "archiving"
	StateEvicting  State = "evicting"
	StateDone      State = "done"
	StateFailed    State = "failed"
)
