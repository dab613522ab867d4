package port

import "github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"

// ChunkStore holds documents and the chunks cut from them.
type ChunkStore interface {
	PutDoc(doc domain.Document) error

	ListDocs() ([]domain.Document, error)

	PutChunks(chunks []domain.Chunk) error

	GetChunk(id string) (domain.Chunk, error)

	GetChunksByDoc(docID string) ([]domain.Chunk, error)

	GetStats() (domain.Stats, error)

	UpdateStats(stats domain.Stats) error

	Clear() error
}
