package domain

// Chunk is a minimal unit of source text stored and retrieved independently.
// Identity is positional: the Nth chunk of a document gets id "<source>-<N>".
type Chunk struct {
	ID     string
	Text   string
	Source string
}

// Record is a stored (vector, text, provenance) tuple, one per chunk.
type Record struct {
	ID        string
	Text      string
	Embedding []float64
	Source    string
}

// Neighbor is a single k-NN result. Distance is dissimilarity: smaller means
// more similar, zero is an exact match under cosine distance.
type Neighbor struct {
	Text     string
	Source   string
	Distance float64
}

// ContextBundle is the classifier's per-query output, consumed by the answer
// composer and then discarded. Matched is ordered ascending by distance.
type ContextBundle struct {
	RenderedText   string
	Matched        []Neighbor
	HasStrongMatch bool
}

// NoMatch reports the "no relevant documents" terminal case, as opposed to a
// weak-but-present match set.
func (b ContextBundle) NoMatch() bool { return len(b.Matched) == 0 }

// Report summarizes one ingestion run.
type Report struct {
	DocumentsProcessed int
	DocumentsSkipped   int
	ChunksStored       int
}

// MatchState is the three-way confidence annotation surfaced to callers.
type MatchState int

const (
	MatchNone MatchState = iota
	MatchWeak
	MatchStrong
)

func (s MatchState) String() string {
	switch s {
	case MatchWeak:
		return "weak"
	case MatchStrong:
		return "strong"
	default:
		return "none"
	}
}
