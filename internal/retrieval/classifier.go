package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"kbbot/internal/domain"
	"kbbot/internal/sourcelinks"
)

// Default thresholds assume cosine distance. The inclusion threshold decides
// what enters the context at all; the strong threshold decides whether the
// match is trustworthy enough to skip the weak-match warning downstream.
const (
	DefaultK                 = 8
	DefaultDistanceThreshold = 0.75
	DefaultStrongThreshold   = 0.50
)

// Options tune the classifier. Zero values fall back to the defaults above.
type Options struct {
	K                 int
	DistanceThreshold float64
	StrongThreshold   float64
}

// Classifier turns a question into a ContextBundle: it embeds the question,
// fetches nearest neighbors, filters them by distance, orders them closest
// first and renders a provenance-tagged context block.
type Classifier struct {
	embedder domain.Embedder
	store    domain.VectorStore
	links    *sourcelinks.Table
	opts     Options
}

func NewClassifier(embedder domain.Embedder, store domain.VectorStore, links *sourcelinks.Table, opts Options) *Classifier {
	if opts.K <= 0 {
		opts.K = DefaultK
	}
	if opts.DistanceThreshold <= 0 {
		opts.DistanceThreshold = DefaultDistanceThreshold
	}
	if opts.StrongThreshold <= 0 {
		opts.StrongThreshold = DefaultStrongThreshold
	}
	return &Classifier{embedder: embedder, store: store, links: links, opts: opts}
}

// Classify runs the retrieval pipeline for one question. An empty question is
// still embedded and queried; input validity is the caller's concern. The
// returned bundle with no matched records is the "no relevant documents"
// outcome, not an error.
func (c *Classifier) Classify(ctx context.Context, question string) (domain.ContextBundle, error) {
	vectors, err := c.embedder.Embed(ctx, []string{question})
	if err != nil {
		return domain.ContextBundle{}, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return domain.ContextBundle{}, fmt.Errorf("%w: expected 1 vector, got %d", domain.ErrEmbedding, len(vectors))
	}

	neighbors, err := c.store.Query(ctx, vectors[0], c.opts.K)
	if err != nil {
		return domain.ContextBundle{}, fmt.Errorf("query store: %w", err)
	}

	matched := make([]domain.Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Distance < c.opts.DistanceThreshold {
			matched = append(matched, n)
		}
	}
	if len(matched) == 0 {
		return domain.ContextBundle{}, nil
	}

	// Closest first. Stable so equal distances keep the store's order.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Distance < matched[j].Distance
	})

	strong := false
	for _, n := range matched {
		if n.Distance < c.opts.StrongThreshold {
			strong = true
			break
		}
	}

	return domain.ContextBundle{
		RenderedText:   c.render(matched),
		Matched:        matched,
		HasStrongMatch: strong,
	}, nil
}

// render produces one citation-labeled block per neighbor, blank-line
// separated, in the given (distance-ascending) order.
func (c *Classifier) render(matched []domain.Neighbor) string {
	blocks := make([]string, 0, len(matched))
	for _, n := range matched {
		blocks = append(blocks, c.Citation(n.Source)+"\n"+n.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// Citation renders a source label, linked when the table knows the filename.
func (c *Classifier) Citation(source string) string {
	if c.links != nil {
		if url, ok := c.links.Resolve(source); ok {
			return fmt.Sprintf("[Source: %s](%s)", source, url)
		}
	}
	return fmt.Sprintf("[Source: %s]", source)
}
