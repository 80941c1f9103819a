package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbbot/internal/chunker"
	"kbbot/internal/domain"
)

type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if f.failOn != "" && strings.Contains(text, f.failOn) {
			return nil, domain.ErrEmbedding
		}
		out[i] = []float64{float64(len(text)), 1}
	}
	return out, nil
}

type recordingStore struct {
	records []domain.Record
	err     error
}

func (s *recordingStore) Upsert(_ context.Context, records []domain.Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *recordingStore) Query(context.Context, []float64, int) ([]domain.Neighbor, error) {
	return nil, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunAssignsIDsAndProvenance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "runbook.txt", "para one\n\npara two\n\npara three")

	store := &recordingStore{}
	p := New(chunker.New(), &fakeEmbedder{}, store, nil)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 3, report.ChunksStored)
	require.Len(t, store.records, 3)
	for i, rec := range store.records {
		assert.Equal(t, fmt.Sprintf("runbook.txt-%d", i), rec.ID)
		assert.Equal(t, "runbook.txt", rec.Source)
		assert.NotEmpty(t, rec.Embedding)
	}
	assert.Equal(t, "para one", store.records[0].Text)
}

func TestRunFailSoftPerDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.txt", "poisoned paragraph")
	writeFile(t, dir, "good.txt", "healthy paragraph")

	store := &recordingStore{}
	p := New(chunker.New(), &fakeEmbedder{failOn: "poisoned"}, store, nil)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsSkipped)
	assert.Equal(t, 1, report.ChunksStored)
	require.Len(t, store.records, 1)
	assert.Equal(t, "good.txt", store.records[0].Source)
}

func TestRunDropsUndecodableBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mixed.txt", "valid start \xff\xfe valid end")

	store := &recordingStore{}
	p := New(chunker.New(), &fakeEmbedder{}, store, nil)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	require.Len(t, store.records, 1)
	assert.Equal(t, "valid start  valid end", store.records[0].Text)
}

func TestRunSkipsSubdirectoriesAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, dir, "empty.txt", "   \n\n  ")
	writeFile(t, dir, "real.txt", "content")

	store := &recordingStore{}
	p := New(chunker.New(), &fakeEmbedder{}, store, nil)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	// The empty file is readable, it just yields no chunks.
	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Equal(t, 1, report.ChunksStored)
}

func TestRunStoreFailureSkipsDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "content")

	store := &recordingStore{err: domain.ErrVectorStore}
	p := New(chunker.New(), &fakeEmbedder{}, store, nil)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsSkipped)
}

func TestRunMissingDirectoryFails(t *testing.T) {
	p := New(chunker.New(), &fakeEmbedder{}, &recordingStore{}, nil)
	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(chunker.New(), &fakeEmbedder{}, &recordingStore{}, nil)
	_, err := p.Run(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
