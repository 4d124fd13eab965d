// Package digest computes content digests for uploaded objects. The digest
// is the identity key for deduplication: identical bytes always produce an
// identical digest, regardless of key, bucket, or upload time.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/blake3"
)

// Supported algorithm names. The name is stored next to every digest in
// the ledger, so a deployment can switch algorithms without ambiguity.
const (
	AlgorithmSHA256 = "SHA-256"
	AlgorithmBLAKE3 = "BLAKE3"
)

// Result is a content digest tagged with the algorithm that produced it.
type Result struct {
	Digest    string
	Algorithm string
}

// Engine hashes byte streams with a fixed algorithm.
type Engine struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewEngine returns an engine for the given algorithm name, or an error
// for algorithms it does not know.
func NewEngine(algorithm string) (*Engine, error) {
	switch algorithm {
	case AlgorithmSHA256:
		return &Engine{algorithm: algorithm, newHash: sha256.New}, nil
	case AlgorithmBLAKE3:
		return &Engine{algorithm: algorithm, newHash: func() hash.Hash { return blake3.New() }}, nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %q", algorithm)
	}
}

// Algorithm returns the engine's algorithm name.
func (e *Engine) Algorithm() string {
	return e.algorithm
}

// Sum consumes r to EOF and returns its digest as a lowercase hex string.
// The stream is hashed as it is read; nothing is buffered beyond the
// copy window.
func (e *Engine) Sum(r io.Reader) (Result, error) {
	h := e.newHash()
	if _, err := io.Copy(h, r); err != nil {
		return Result{}, fmt.Errorf("hashing stream: %w", err)
	}
	return Result{
		Digest:    hex.EncodeToString(h.Sum(nil)),
		Algorithm: e.algorithm,
	}, nil
}
