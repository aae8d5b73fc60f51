// Package search ranks stored chunks against a natural-language query. The
// query is embedded with the same provider that indexed the collection and
// scored by cosine similarity in the vector store.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/codescout/codescout/internal/embedder"
	"github.com/codescout/codescout/internal/store"
	"github.com/codescout/codescout/pkg/types"
)

const (
	// DefaultLimit is the result count when the caller passes zero.
	DefaultLimit = 10
	// DefaultMaxLimit caps a single query's result count.
	DefaultMaxLimit = 100
)

// Config tunes result limits.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = DefaultMaxLimit
	}
	return c
}

// Engine embeds queries and ranks stored chunks.
type Engine struct {
	emb    embedder.Embedder
	store  store.VectorStore
	cfg    Config
	logger *zap.Logger
}

// New creates an Engine.
func New(emb embedder.Embedder, vs store.VectorStore, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{emb: emb, store: vs, cfg: cfg.withDefaults(), logger: logger}
}

// Search returns the top-k ranked chunks in collectionID for query. A blank
// query fails with types.ErrInvalidQuery; k <= 0 falls back to the default
// limit and k above the cap is clamped. An empty collection yields an empty
// result set, not an error.
func (e *Engine) Search(ctx context.Context, collectionID, query string, k int) ([]types.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", types.ErrInvalidQuery)
	}
	if k <= 0 {
		k = e.cfg.DefaultLimit
	}
	if k > e.cfg.MaxLimit {
		k = e.cfg.MaxLimit
	}

	vectors, err := e.emb.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	matches, err := e.store.Query(ctx, collectionID, vectors[0], k)
	if err != nil {
		return nil, err
	}

	results := make([]types.Result, len(matches))
	for i, m := range matches {
		results[i] = types.Result{
			Rank:  i + 1,
			Score: m.Score,
			Chunk: types.Chunk{
				FilePath:    m.Record.FilePath,
				Language:    m.Record.Language,
				StartLine:   m.Record.StartLine,
				EndLine:     m.Record.EndLine,
				Text:        m.Record.Content,
				Fingerprint: m.Record.Fingerprint,
				Oversized:   m.Record.Oversized,
			},
			Sources: []string{"vector", m.Record.Provider + "/" + m.Record.Model},
		}
	}

	e.logger.Debug("search completed",
		zap.String("collection", collectionID),
		zap.Int("k", k),
		zap.Int("results", len(results)))

	return results, nil
}
