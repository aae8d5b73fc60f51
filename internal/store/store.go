package store

import (
	"context"
	"time"
)

// Record is one persisted (vector, chunk metadata) pair, keyed by the chunk
// fingerprint within its collection.
type Record struct {
	Fingerprint string
	Vector      []float32

	// Chunk metadata
	FilePath  string // Relative to project root
	Language  string
	StartLine int
	EndLine   int
	Content   string
	Oversized bool

	// Provenance
	Provider  string
	Model     string
	IndexedAt time.Time
}

// Match is a query hit: the stored record and its similarity score.
type Match struct {
	Record Record
	Score  float64
}

// VectorStore persists embedding records per collection and supports
// nearest-neighbor query by vector.
//
// Upsert is idempotent by fingerprint: re-upserting an existing fingerprint
// with identical data is a no-op, a changed vector overwrites. Query against
// a missing collection fails with types.ErrCollectionNotFound; an existing
// but empty collection returns zero matches. I/O failures wrap
// types.ErrStoreConnection.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, collectionID string) error

	// Upsert inserts or replaces records in a collection.
	Upsert(ctx context.Context, collectionID string, records []Record) error

	// Query returns the k nearest records by cosine similarity, ordered by
	// descending score with deterministic tie-breaking (shorter file path,
	// then lower start line).
	Query(ctx context.Context, collectionID string, vector []float32, k int) ([]Match, error)

	// Delete removes records by fingerprint. Unknown fingerprints are
	// ignored. Returns the number of records removed.
	Delete(ctx context.Context, collectionID string, fingerprints []string) (int, error)

	// ListFingerprints returns every stored fingerprint in the collection
	// mapped to its file path, for re-index diffing.
	ListFingerprints(ctx context.Context, collectionID string) (map[string]string, error)

	// DropCollection removes a collection and all of its records.
	DropCollection(ctx context.Context, collectionID string) error

	// Close releases the underlying connection.
	Close() error
}
