package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codescout/codescout/pkg/types"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// DefaultBatchSize bounds peak memory per provider call.
	DefaultBatchSize = 50
	// MaxBatchSize is the hard cap a single call will accept.
	MaxBatchSize = 100
	// DefaultCacheSize is the default embedding cache capacity.
	DefaultCacheSize = 10000
)

// Embedder converts a batch of texts into one vector per input text,
// order-preserving. Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedBatch returns vectors[i] for texts[i]. Vectors are stable across
	// runs for the same model version.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension this provider produces.
	Dimension() int

	// Provider returns the provider name.
	Provider() string

	// Model returns the model name.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// ValidateBatch rejects malformed input before it reaches a provider.
func ValidateBatch(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", types.ErrEmbedding)
	}
	if len(texts) > MaxBatchSize {
		return fmt.Errorf("%w: batch of %d exceeds limit %d", types.ErrEmbedding, len(texts), MaxBatchSize)
	}
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", types.ErrEmbedding, i)
		}
	}
	return nil
}

// ComputeHash computes the SHA-256 hash of text for cache keys.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Cache provides in-memory LRU caching of vectors by content hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which we just fixed.
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. A copy prevents caller mutations
// from polluting the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	v, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores a vector; LRU eviction is automatic at capacity.
func (c *Cache) Set(hash string, v []float32) {
	c.cache.Add(hash, v)
}

// Len returns the current cache size.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// cachedLookup partitions texts into cache hits and misses. hits maps text
// index to its vector; misses holds the indices still needing the provider.
func cachedLookup(cache *Cache, texts []string) (hits map[int][]float32, misses []int) {
	hits = make(map[int][]float32)
	if cache == nil {
		misses = make([]int, len(texts))
		for i := range texts {
			misses[i] = i
		}
		return hits, misses
	}
	for i, text := range texts {
		if v, ok := cache.Get(ComputeHash(text)); ok {
			hits[i] = v
		} else {
			misses = append(misses, i)
		}
	}
	return hits, misses
}
