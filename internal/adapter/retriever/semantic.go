package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var _ port.Retriever = (*SemanticRetriever)(nil)

type SemanticRetriever struct {
	vectorStore port.VectorStore
	embedder    port.Embedder
	chunkStore  port.ChunkStore
}

func NewSemanticRetriever(
	vectorStore port.VectorStore,
	embedder port.Embedder,
	chunkStore port.ChunkStore,
) *SemanticRetriever {
	return &SemanticRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		chunkStore:  chunkStore,
	}
}

// Search embeds the query with the indexing embedder and returns up to k
// chunks by descending cosine similarity. Equal scores keep corpus order.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %w", domain.ErrRetrievalFailed, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: embedding returned empty result", domain.ErrRetrievalFailed)
	}
	if dim := r.embedder.Dimension(); len(embeddings[0]) != dim {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			domain.ErrRetrievalFailed, len(embeddings[0]), dim)
	}

	results, err := r.vectorStore.Search(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search failed: %w", domain.ErrRetrievalFailed, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	chunks := make([]domain.ScoredChunk, 0, len(results))
	for _, result := range results {
		chunk, err := r.chunkStore.GetChunk(result.ID)
		if err != nil {
			// The two stores are written together; a gap means a broken index.
			return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
		}
		chunks = append(chunks, domain.ScoredChunk{
			Chunk: chunk,
			Score: result.Score,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		if chunks[i].Chunk.DocID != chunks[j].Chunk.DocID {
			return chunks[i].Chunk.DocID < chunks[j].Chunk.DocID
		}
		return chunks[i].Chunk.Index < chunks[j].Chunk.Index
	})

	return chunks, nil
}
