package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalDimension is the vector dimension of the local provider.
const LocalDimension = 256

// LocalProvider is a deterministic, dependency-free embedder. Each text maps
// to a normalized bag-of-tokens vector: tokens hash to a dimension index and
// accumulate counts. Identical texts always produce identical vectors, and
// texts sharing tokens land near each other, which is enough signal for
// offline use and tests.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates a local embedder.
func NewLocalProvider(cache *Cache) *LocalProvider {
	return &LocalProvider{cache: cache}
}

// EmbedBatch embeds each text independently; order is the input order by
// construction.
func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hash := ComputeHash(text)
		if l.cache != nil {
			if v, ok := l.cache.Get(hash); ok {
				vectors[i] = v
				continue
			}
		}
		v := embedTokens(text)
		if l.cache != nil {
			l.cache.Set(hash, v)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// embedTokens builds the normalized token-count vector for one text.
func embedTokens(text string) []float32 {
	v := make([]float32, LocalDimension)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[h.Sum32()%LocalDimension]++
	}
	normalize(v)
	return v
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize scales v to unit length in place.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// Dimension returns the embedding dimension.
func (l *LocalProvider) Dimension() int { return LocalDimension }

// Provider returns "local".
func (l *LocalProvider) Provider() string { return ProviderLocal }

// Model returns the model name.
func (l *LocalProvider) Model() string { return "token-hash-v1" }

// Close releases provider resources.
func (l *LocalProvider) Close() error { return nil }
