package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"kbbot/internal/domain"
)

// Store is an in-process vector store using brute-force cosine distance.
// It exists for tests and offline runs; upserting an existing id overwrites
// the stored record, matching the Qdrant behavior.
type Store struct {
	mu      sync.RWMutex
	records []domain.Record
	byID    map[string]int
}

func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

func (s *Store) Upsert(_ context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("%w: record %s has no embedding", domain.ErrVectorStore, rec.ID)
		}
		if i, ok := s.byID[rec.ID]; ok {
			s.records[i] = rec
			continue
		}
		s.byID[rec.ID] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

// Query returns up to k records ascending by cosine distance. Ties keep
// insertion order.
func (s *Store) Query(_ context.Context, vector []float64, k int) ([]domain.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = 8
	}
	neighbors := make([]domain.Neighbor, 0, len(s.records))
	for _, rec := range s.records {
		neighbors = append(neighbors, domain.Neighbor{
			Text:     rec.Text,
			Source:   rec.Source,
			Distance: cosineDistance(vector, rec.Embedding),
		})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if k > len(neighbors) {
		k = len(neighbors)
	}
	return neighbors[:k], nil
}

// Reset drops all stored records.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[string]int)
	return nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
