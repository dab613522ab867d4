package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/analyzer"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var _ port.Embedder = (*HashingEmbedder)(nil)

// HashingEmbedder maps word and character n-gram features into a fixed
// number of signed buckets (the hashing trick) and L2-normalizes the
// result. It is deterministic and runs fully offline.
type HashingEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 512
	}
	return &HashingEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(2, 3),
	}
}

func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embedOne(text)
	}
	return embeddings, nil
}

func (e *HashingEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, f := range e.tokenizer.Features(text) {
		h := fnv.New64a()
		h.Write([]byte(f))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimension))
		// The top bit picks the sign so colliding features tend to cancel.
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) ModelName() string {
	return "hashing-ngram"
}
