package types

import "time"

// Result represents a single ranked search hit.
type Result struct {
	Rank  int     // Position in result set (1-based)
	Score float64 // Similarity score, higher is better

	// Chunk carries the matched chunk's full text and location metadata.
	Chunk Chunk

	// Sources names the provenance of the match: the search mode and the
	// embedding provider/model that produced the stored vector.
	Sources []string
}

// SkippedFile records a file excluded from an indexing run and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Skip reasons reported in IndexSummary.
const (
	SkipReasonEmpty      = "empty"
	SkipReasonPermission = "permission"
	SkipReasonTooLarge   = "too-large"
	SkipReasonBinary     = "binary"
	SkipReasonReadError  = "read-error"
)

// IndexSummary is the success payload of an indexing run.
type IndexSummary struct {
	RunID    string `json:"run_id"`
	RootPath string `json:"root_path"`

	FilesScanned int           `json:"files_scanned"`
	FilesSkipped int           `json:"files_skipped"`
	Skipped      []SkippedFile `json:"skipped,omitempty"`

	ChunksCreated   int `json:"chunks_created"`
	ChunksUnchanged int `json:"chunks_unchanged"`
	ChunksDeleted   int `json:"chunks_deleted"`
	ChunksSkipped   int `json:"chunks_skipped"` // embedding failures

	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`

	// Errors holds per-file failure messages, capped by the pipeline.
	Errors []string `json:"errors,omitempty"`
}

// Clean reports whether the run changed nothing: an idempotent re-index of
// an unchanged tree.
func (s *IndexSummary) Clean() bool {
	return s.ChunksCreated == 0 && s.ChunksDeleted == 0 && s.ChunksSkipped == 0
}
