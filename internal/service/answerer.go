package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kbbot/internal/domain"
	"kbbot/internal/retrieval"
	"kbbot/internal/sourcelinks"
)

// ContextProvider is the classifier-facing dependency of the answerer.
type ContextProvider interface {
	Classify(ctx context.Context, question string) (domain.ContextBundle, error)
}

// SourceRef is one deduplicated source reference surfaced with an answer.
// URL is empty when the link table has no entry for the filename.
type SourceRef struct {
	Name string
	URL  string
}

// Answer is the complete query output: generated text plus the three-way
// match annotation and up to the configured number of ranked sources.
type Answer struct {
	Text    string
	State   domain.MatchState
	Sources []SourceRef
	Matched []domain.Neighbor
}

// Answerer drives one question end to end: classify, compose, annotate.
// All external failures along the way fail the whole question; no partial
// answer is ever returned.
type Answerer struct {
	classifier  ContextProvider
	generator   domain.Generator
	links       *sourcelinks.Table
	sourceLimit int
	log         *zap.Logger
}

func NewAnswerer(classifier ContextProvider, generator domain.Generator, links *sourcelinks.Table, sourceLimit int, log *zap.Logger) *Answerer {
	if sourceLimit <= 0 {
		sourceLimit = retrieval.DefaultSourceLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Answerer{
		classifier:  classifier,
		generator:   generator,
		links:       links,
		sourceLimit: sourceLimit,
		log:         log,
	}
}

// Answer processes a single question synchronously. The no-match outcome takes
// the generic-generation path; weak and strong matches take the grounded path
// and differ only in the annotation state.
func (a *Answerer) Answer(ctx context.Context, question string) (Answer, error) {
	bundle, err := a.classifier.Classify(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("classify question: %w", err)
	}

	if bundle.NoMatch() {
		a.log.Debug("no relevant context", zap.String("question", question))
		text, err := a.generator.AnswerGeneric(ctx, question)
		if err != nil {
			return Answer{}, fmt.Errorf("generate answer: %w", err)
		}
		return Answer{Text: text, State: domain.MatchNone}, nil
	}

	text, err := a.generator.AnswerWithContext(ctx, question, bundle.RenderedText)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	state := domain.MatchWeak
	if bundle.HasStrongMatch {
		state = domain.MatchStrong
	}
	a.log.Debug("answered with context",
		zap.String("state", state.String()),
		zap.Int("matched", len(bundle.Matched)))

	return Answer{
		Text:    text,
		State:   state,
		Sources: a.sourceRefs(bundle.Matched),
		Matched: bundle.Matched,
	}, nil
}

func (a *Answerer) sourceRefs(matched []domain.Neighbor) []SourceRef {
	names := retrieval.TopSources(matched, a.sourceLimit)
	refs := make([]SourceRef, 0, len(names))
	for _, name := range names {
		ref := SourceRef{Name: name}
		if a.links != nil {
			if url, ok := a.links.Resolve(name); ok {
				ref.URL = url
			}
		}
		refs = append(refs, ref)
	}
	return refs
}
