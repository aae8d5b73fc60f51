package embedder

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codescout/codescout/pkg/types"
)

// OpenAI defaults.
const (
	DefaultOpenAIModel = "text-embedding-3-small"
	OpenAIDimension    = 1536
	openAITimeout      = 30 * time.Second
)

// OpenAIProvider implements Embedder using the OpenAI embeddings API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	dim     int
	cache   *Cache
	retry   RetryConfig
	timeout time.Duration
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional: OpenAI-compatible endpoint
	Model   string
	Timeout time.Duration
}

// NewOpenAIProvider creates an OpenAI embedder.
func NewOpenAIProvider(cfg OpenAIConfig, cache *Cache) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not set", types.ErrEmbedding)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dim := OpenAIDimension
	if model == "text-embedding-3-large" {
		dim = 3072
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = openAITimeout
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		dim:     dim,
		cache:   cache,
		retry:   DefaultRetryConfig(),
		timeout: timeout,
	}, nil
}

// EmbedBatch embeds texts in one API call, reassembling vectors by the
// response index field so order never depends on the provider.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	hits, misses := cachedLookup(p.cache, texts)
	for i, v := range hits {
		vectors[i] = v
	}
	if len(misses) == 0 {
		return vectors, nil
	}

	missing := make([]string, len(misses))
	for i, idx := range misses {
		missing[i] = texts[idx]
	}

	embedded, err := retryWithBackoff(ctx, p.retry, func() ([][]float32, error) {
		return p.callAPI(ctx, missing)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", types.ErrEmbedding, err)
	}

	for i, idx := range misses {
		vectors[idx] = embedded[i]
		if p.cache != nil {
			p.cache.Set(ComputeHash(texts[idx]), embedded[i])
		}
	}
	return vectors, nil
}

func (p *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(p.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}
	return vectors, nil
}

// Dimension returns the embedding dimension.
func (p *OpenAIProvider) Dimension() int { return p.dim }

// Provider returns "openai".
func (p *OpenAIProvider) Provider() string { return ProviderOpenAI }

// Model returns the model name.
func (p *OpenAIProvider) Model() string { return p.model }

// Close releases provider resources.
func (p *OpenAIProvider) Close() error { return nil }
