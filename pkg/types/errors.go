package types

import "errors"

// Error taxonomy shared across the pipeline. Per-file and per-chunk errors
// during indexing are logged and skipped; query-time errors propagate to the
// caller; store connection errors are fatal to the current operation.
var (
	// ErrNotFound is returned when a requested path does not exist.
	ErrNotFound = errors.New("path not found")

	// ErrPermission is returned for unreadable files. Non-fatal during
	// indexing: the file is logged, counted as skipped, and the run continues.
	ErrPermission = errors.New("permission denied")

	// ErrEmbedding is returned when the embedding provider rejects input or
	// fails after retries. The offending batch is skipped, never the run.
	ErrEmbedding = errors.New("embedding failed")

	// ErrCollectionNotFound is returned when querying a collection that was
	// never created. Distinct from an existing-but-empty collection, which
	// returns zero results.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrNoActiveProject is returned when a search runs before any project
	// has been set active.
	ErrNoActiveProject = errors.New("no active project")

	// ErrInvalidQuery is returned for empty or blank query text, before any
	// embedding call is made.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnknownProject is returned when activating a path that was never
	// registered.
	ErrUnknownProject = errors.New("unknown project")

	// ErrStoreConnection wraps vector store I/O failures. Fatal to the
	// current operation; previously committed records are left untouched.
	ErrStoreConnection = errors.New("store connection failed")

	// ErrIndexInProgress is returned when an indexing run is requested for a
	// project that is already being indexed.
	ErrIndexInProgress = errors.New("indexing already in progress")
)
