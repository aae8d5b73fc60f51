// Package types provides shared type definitions for codescout.
//
// This package defines the domain types used across the indexing and
// retrieval pipeline: chunks, index summaries, search results, and the
// error taxonomy shared by every component.
//
// # Core Types
//
// Chunk represents a bounded span of one source file treated as a single
// embeddable and retrievable unit:
//
//	chunk := types.Chunk{
//	    FilePath:  "internal/auth/login.go",
//	    Language:  "go",
//	    StartLine: 12,
//	    EndLine:   48,
//	    Text:      functionBody,
//	}
//	chunk.Fingerprint = types.Fingerprint(chunk.FilePath, chunk.Text)
//
// The fingerprint is a content hash used for change detection: re-indexing
// an unchanged chunk is a no-op, a changed chunk produces a new fingerprint
// and supersedes the stale record.
//
// Result combines chunk metadata with a similarity score and provenance
// tags naming where the match came from (search mode, embedding model).
//
// # Errors
//
// All pipeline and query failures map onto the sentinel errors in this
// package (ErrNotFound, ErrInvalidQuery, ...) so callers can classify them
// with errors.Is regardless of which component produced them.
package types
