package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var _ port.VectorStore = (*VectorIndex)(nil)

// VectorIndex is an exact, brute-force cosine index held in memory.
// Readers take the read lock only, so concurrent searches never block
// each other once the index is built.
type VectorIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	metadata map[string]string
}

func NewVectorIndex(dimension int) *VectorIndex {
	return &VectorIndex{
		dimension: dimension,
		vectors:   make(map[string]vectorEntry),
	}
}

func (x *VectorIndex) Dimension() int {
	return x.dimension
}

func (x *VectorIndex) Upsert(_ context.Context, items []port.VectorItem) error {
	for _, item := range items {
		if len(item.Vector) != x.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", x.dimension, len(item.Vector))
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, item := range items {
		x.vectors[item.ID] = vectorEntry{vector: item.Vector, metadata: item.Metadata}
	}
	return nil
}

// Search ranks every vector by cosine similarity. Equal scores are
// ordered by ID so results are stable across calls.
func (x *VectorIndex) Search(_ context.Context, query []float32, k int) ([]port.VectorResult, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return nil, nil
	}

	scores := make([]port.VectorResult, 0, len(x.vectors))
	for id, entry := range x.vectors {
		scores = append(scores, port.VectorResult{
			ID:       id,
			Score:    CosineSimilarity(query, entry.vector),
			Metadata: entry.metadata,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

func (x *VectorIndex) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors), nil
}

func (x *VectorIndex) Clear(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = make(map[string]vectorEntry)
	return nil
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
