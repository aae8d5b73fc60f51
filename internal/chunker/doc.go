// Package chunker splits file text into bounded-size, semantically aligned
// chunks for embedding.
//
// Chunking is capability-dispatched: each language tag maps to a Strategy
// implementing a single Chunk(text) contract. Languages with a detectable
// block structure use a boundary-aware strategy that keeps a function or
// class unit intact instead of cutting mid-body; everything else falls back
// to a fixed-size sliding window of lines with overlap. Overlapping trailing
// lines repeated at the start of the next chunk preserve context across
// boundaries for embedding quality, at the cost of marginally more storage.
//
// Adding a language means registering a boundary pattern; the pipeline never
// branches on language itself.
package chunker
