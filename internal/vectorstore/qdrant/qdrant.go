package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"kbbot/internal/domain"
)

// Store is a minimal REST client to Qdrant. The collection uses cosine
// similarity; scores are converted to cosine distance (1 - score) so callers
// see the lower-is-closer semantics the classifier thresholds assume.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "knowledge_base"
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Upsert writes records in one batch. Re-ingesting a document overwrites its
// previous records because point ids derive deterministically from record ids.
func (s *Store) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(records[0].Embedding)); err != nil {
		return err
	}
	points := make([]map[string]any, len(records))
	for i, rec := range records {
		points[i] = map[string]any{
			// Qdrant only accepts UUID or integer point ids.
			"id":     pointID(rec.ID),
			"vector": rec.Embedding,
			"payload": map[string]any{
				"id":     rec.ID,
				"text":   rec.Text,
				"source": rec.Source,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// Query returns the k nearest records ascending by distance, as Qdrant ranks
// them. Ties keep the store's order.
func (s *Store) Query(ctx context.Context, vector []float64, k int) ([]domain.Neighbor, error) {
	if k <= 0 {
		k = 8
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	neighbors := make([]domain.Neighbor, 0, len(resp.Result))
	for _, r := range resp.Result {
		n := domain.Neighbor{Distance: 1 - r.Score}
		if v, ok := r.Payload["text"].(string); ok {
			n.Text = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			n.Source = v
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, nil
}

// Reset drops the collection. It is recreated on the next upsert.
func (s *Store) Reset(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrVectorStore, err)
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrVectorStore, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: delete collection: %s", domain.ErrVectorStore, resp.Status)
	}
	return nil
}

func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid vector dimension %d", domain.ErrVectorStore, dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 200 when the collection already exists with this schema.
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrVectorStore, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrVectorStore, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrVectorStore, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: %s", domain.ErrVectorStore, method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %s", domain.ErrVectorStore, err)
		}
	}
	return nil
}
