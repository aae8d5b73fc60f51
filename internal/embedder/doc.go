// Package embedder converts chunk and query text into fixed-dimension dense
// vectors.
//
// The Embedder interface is the narrow capability the pipeline depends on:
//
//	vectors, err := emb.EmbedBatch(ctx, texts)
//
// EmbedBatch is order-preserving: vectors[i] always corresponds to texts[i],
// re-associated by explicit index regardless of provider completion order.
// Vectors are stable across runs for a fixed model version.
//
// Two providers are included: "openai" calls the OpenAI embeddings API with
// retry and exponential backoff, and "local" computes deterministic
// token-hash vectors with no external dependency, used for offline indexing
// and tests. An LRU cache keyed by content hash sits in front of either
// provider so repeated texts (chunk overlap, repeated queries) skip the
// provider entirely.
package embedder
