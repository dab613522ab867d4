package usecase

import (
	"context"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

// Reranker reorders retrieval candidates, keeping at most k.
type Reranker interface {
	Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk
}

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	retriever         port.Retriever
	reranker          Reranker // nil keeps similarity order
	minScoreThreshold float64  // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case. reranker may be nil.
func NewRetrieveUseCase(
	retriever port.Retriever,
	reranker Reranker,
	minScoreThreshold float64,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		retriever:         retriever,
		reranker:          reranker,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve returns up to topK chunks for the query, best first.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	fetch := topK
	if u.reranker != nil {
		fetch = topK * 2
	}

	candidates, err := u.retriever.Search(ctx, query, fetch)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	results := candidates
	if u.reranker != nil {
		results = u.reranker.Rerank(candidates, topK)
	} else if len(results) > topK {
		results = results[:topK]
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}

	return results, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredChunk) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	DocID string  `json:"doc_id"`
	Index int     `json:"index"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

func ToResults(chunks []domain.ScoredChunk) []ScoredChunkResult {
	out := make([]ScoredChunkResult, len(chunks))
	for i, c := range chunks {
		out[i] = ScoredChunkResult{
			DocID: c.Chunk.DocID,
			Index: c.Chunk.Index,
			Start: c.Chunk.Start,
			End:   c.Chunk.End,
			Score: c.Score,
			Text:  c.Chunk.Text,
		}
	}
	return out
}
