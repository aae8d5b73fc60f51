package embedder

import (
	"fmt"
	"strings"
	"time"

	"github.com/codescout/codescout/pkg/types"
)

// Config holds embedder selection and tuning.
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	CacheSize int
	Timeout   time.Duration
}

// New creates an embedder for the configured provider.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, cache)
	case ProviderLocal, "":
		return NewLocalProvider(cache), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", types.ErrEmbedding, cfg.Provider)
	}
}
