package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"kbbot/internal/domain"
)

// Chunker splits a document into ordered, non-empty text chunks.
type Chunker interface {
	Split(text string) []string
}

// Pipeline populates the vector store from a directory of text documents.
// Each document flows chunk → batch embed → batch upsert; a failing document
// is skipped with a warning so the rest of the batch still lands.
type Pipeline struct {
	chunker  Chunker
	embedder domain.Embedder
	store    domain.VectorStore
	log      *zap.Logger
}

func New(chunker Chunker, embedder domain.Embedder, store domain.VectorStore, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{chunker: chunker, embedder: embedder, store: store, log: log}
}

// Run ingests every readable file in dir. The filename becomes the provenance
// key: chunk N of file F is stored with id "F-N" and source F. Returns an
// error only when the directory itself cannot be listed or the context ends.
func (p *Pipeline) Run(ctx context.Context, dir string) (domain.Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.Report{}, fmt.Errorf("read data directory: %w", err)
	}

	var report domain.Report
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := entry.Name()
		stored, err := p.ingestFile(ctx, filepath.Join(dir, name), name)
		if err != nil {
			report.DocumentsSkipped++
			p.log.Warn("skipping document", zap.String("file", name), zap.Error(err))
			continue
		}
		report.DocumentsProcessed++
		report.ChunksStored += stored
		p.log.Info("ingested document", zap.String("file", name), zap.Int("chunks", stored))
	}
	return report, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, path, name string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}
	// Best-effort decode: drop undecodable byte sequences rather than fail.
	text := strings.ToValidUTF8(string(data), "")

	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}

	records := make([]domain.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = domain.Record{
			ID:        fmt.Sprintf("%s-%d", name, i),
			Text:      chunk,
			Embedding: vectors[i],
			Source:    name,
		}
	}
	if err := p.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("store records: %w", err)
	}
	return len(records), nil
}
