// Package index runs the indexing pipeline: walk a project tree, classify
// and chunk each source file, embed new chunks, and persist them to the
// vector store under the project's collection. Runs are idempotent: chunks
// whose fingerprints already exist are never re-embedded, and fingerprints
// no longer produced by the tree are deleted at the end of the run.
package index
