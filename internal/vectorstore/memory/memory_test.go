package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbbot/internal/domain"
)

func TestQueryReturnsNearestAscending(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "a.txt-0", Text: "a", Source: "a.txt", Embedding: []float64{1, 0}},
		{ID: "b.txt-0", Text: "b", Source: "b.txt", Embedding: []float64{0, 1}},
		{ID: "c.txt-0", Text: "c", Source: "c.txt", Embedding: []float64{1, 0.2}},
	}))

	got, err := s.Query(ctx, []float64{1, 0}, 2)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Text)
	assert.InDelta(t, 0, got[0].Distance, 1e-9)
	assert.Equal(t, "c", got[1].Text)
	assert.Less(t, got[0].Distance, got[1].Distance)
}

func TestQueryTiesKeepInsertionOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "first", Text: "first", Source: "f.txt", Embedding: []float64{1, 0}},
		{ID: "second", Text: "second", Source: "s.txt", Embedding: []float64{2, 0}},
	}))

	got, err := s.Query(ctx, []float64{1, 0}, 8)
	require.NoError(t, err)

	// Both are distance zero under cosine; insertion order wins.
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
}

func TestUpsertOverwritesByID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "doc.txt-0", Text: "old", Source: "doc.txt", Embedding: []float64{1, 0}},
	}))
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "doc.txt-0", Text: "new", Source: "doc.txt", Embedding: []float64{1, 0}},
	}))

	assert.Equal(t, 1, s.Len())
	got, err := s.Query(ctx, []float64{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", got[0].Text)
}

func TestUpsertRejectsMissingEmbedding(t *testing.T) {
	s := NewStore()
	err := s.Upsert(context.Background(), []domain.Record{{ID: "x", Text: "x"}})
	assert.ErrorIs(t, err, domain.ErrVectorStore)
}

func TestQueryEmptyStore(t *testing.T) {
	s := NewStore()
	got, err := s.Query(context.Background(), []float64{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReset(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "doc.txt-0", Text: "t", Source: "doc.txt", Embedding: []float64{1}},
	}))
	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, 0, s.Len())
}
