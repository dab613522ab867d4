package port

import (
	"context"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
)

// Retriever defines the interface for searching indexed content.
type Retriever interface {
	// Search returns up to k chunks ordered by descending similarity.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}
