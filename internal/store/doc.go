// Package store persists embedding records per project collection and
// answers nearest-neighbor queries.
//
// The VectorStore interface is the narrow contract the pipeline and query
// engine depend on: ensure/drop collection, idempotent upsert keyed by chunk
// fingerprint, k-nearest query by vector, and delete by fingerprints. The
// SQLite implementation stores vectors as little-endian float32 blobs and
// ranks by cosine similarity computed in Go, so it works identically in cgo
// and pure Go builds (see build_cgo.go / build_purego.go for driver
// selection).
//
// The same database also backs the project registry (project.Registry), so
// a single file under the state directory holds everything.
//
// Collections stay queryable while a re-index is running: upserts and
// deletes land incrementally in WAL mode rather than behind an exclusive
// lock.
package store
