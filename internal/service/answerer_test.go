package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbbot/internal/domain"
	"kbbot/internal/sourcelinks"
)

type stubClassifier struct {
	bundle domain.ContextBundle
	err    error
}

func (s *stubClassifier) Classify(context.Context, string) (domain.ContextBundle, error) {
	return s.bundle, s.err
}

type stubGenerator struct {
	groundedErr error
	genericErr  error

	gotContext string
	grounded   int
	generic    int
}

func (s *stubGenerator) AnswerWithContext(_ context.Context, _, renderedContext string) (string, error) {
	s.grounded++
	s.gotContext = renderedContext
	if s.groundedErr != nil {
		return "", s.groundedErr
	}
	return "grounded answer", nil
}

func (s *stubGenerator) AnswerGeneric(context.Context, string) (string, error) {
	s.generic++
	if s.genericErr != nil {
		return "", s.genericErr
	}
	return "generic answer", nil
}

func TestAnswerNoMatchTakesGenericPath(t *testing.T) {
	gen := &stubGenerator{}
	a := NewAnswerer(&stubClassifier{}, gen, nil, 0, nil)

	answer, err := a.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, domain.MatchNone, answer.State)
	assert.Equal(t, "generic answer", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 1, gen.generic)
	assert.Equal(t, 0, gen.grounded)
}

func TestAnswerWeakMatchAnnotation(t *testing.T) {
	bundle := domain.ContextBundle{
		RenderedText: "[Source: a.txt]\nchunk",
		Matched: []domain.Neighbor{
			{Text: "chunk", Source: "a.txt", Distance: 0.6},
		},
		HasStrongMatch: false,
	}
	gen := &stubGenerator{}
	a := NewAnswerer(&stubClassifier{bundle: bundle}, gen, nil, 0, nil)

	answer, err := a.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, domain.MatchWeak, answer.State)
	assert.Equal(t, "grounded answer", answer.Text)
	assert.Equal(t, bundle.RenderedText, gen.gotContext)
	assert.Equal(t, []SourceRef{{Name: "a.txt"}}, answer.Sources)
}

func TestAnswerStrongMatchWithLinkedSources(t *testing.T) {
	bundle := domain.ContextBundle{
		RenderedText: "ctx",
		Matched: []domain.Neighbor{
			{Source: "a.txt", Distance: 0.1},
			{Source: "a.txt", Distance: 0.15},
			{Source: "b.txt", Distance: 0.2},
			{Source: "c.txt", Distance: 0.3},
			{Source: "d.txt", Distance: 0.4},
		},
		HasStrongMatch: true,
	}
	links := sourcelinks.New(map[string]string{"a.txt": "https://wiki.example.com/a"})
	a := NewAnswerer(&stubClassifier{bundle: bundle}, &stubGenerator{}, links, 3, nil)

	answer, err := a.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, domain.MatchStrong, answer.State)
	assert.Equal(t, []SourceRef{
		{Name: "a.txt", URL: "https://wiki.example.com/a"},
		{Name: "b.txt"},
		{Name: "c.txt"},
	}, answer.Sources)
}

func TestAnswerClassifierFailureIsFailHard(t *testing.T) {
	gen := &stubGenerator{}
	a := NewAnswerer(&stubClassifier{err: domain.ErrEmbedding}, gen, nil, 0, nil)

	_, err := a.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	// No silent fallback to the generic answer.
	assert.Equal(t, 0, gen.generic)
	assert.Equal(t, 0, gen.grounded)
}

func TestAnswerGenerationFailurePropagates(t *testing.T) {
	bundle := domain.ContextBundle{
		RenderedText: "ctx",
		Matched:      []domain.Neighbor{{Source: "a.txt", Distance: 0.1}},
	}
	a := NewAnswerer(&stubClassifier{bundle: bundle}, &stubGenerator{groundedErr: domain.ErrGeneration}, nil, 0, nil)
	_, err := a.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrGeneration)

	a = NewAnswerer(&stubClassifier{}, &stubGenerator{genericErr: domain.ErrGeneration}, nil, 0, nil)
	_, err = a.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrGeneration)
}
