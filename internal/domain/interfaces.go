package domain

import (
	"context"
	"errors"
)

// Error classes for external collaborator failures. Implementations wrap these
// so callers can branch with errors.Is without knowing the concrete client.
var (
	ErrEmbedding   = errors.New("embedding service failure")
	ErrVectorStore = errors.New("vector store failure")
	ErrGeneration  = errors.New("generation service failure")
)

// Embedder maps texts to fixed-dimension vectors, preserving order and length.
// Used both for batch document embedding and single-question embedding.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore persists records and answers k-nearest-neighbor queries by
// distance. Query results carry the distance for each neighbor.
type VectorStore interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float64, k int) ([]Neighbor, error)
}

// Generator is the answer-composer boundary: single-shot, non-streaming calls
// to a generative service. Neither entry point retries on failure.
type Generator interface {
	AnswerWithContext(ctx context.Context, question, renderedContext string) (string, error)
	AnswerGeneric(ctx context.Context, question string) (string, error)
}
