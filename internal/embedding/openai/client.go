package openai

import (
	"context"
	"fmt"
	"os"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"kbbot/internal/domain"
)

// Client produces embeddings through the OpenAI API. It implements
// domain.Embedder for both batch document embedding and single questions.
type Client struct {
	api       oai.Client
	model     string
	timeout   time.Duration
	dimension int
}

// Config configures the embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates an embeddings client using the provided configuration.
// The API key is read from the environment variable named in APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:     oai.NewClient(opts...),
		model:   cfg.Model,
		timeout: t,
	}, nil
}

// Dimension returns the vector dimensionality, known after the first call.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns one vector per input text, in input order. A single request
// carries the whole batch.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Input: oai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: oai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbedding, len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", domain.ErrEmbedding, i)
		}
		vectors[i] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector for input %d", domain.ErrEmbedding, i)
		}
	}
	if c.dimension == 0 {
		c.dimension = len(vectors[0])
	}
	return vectors, nil
}
