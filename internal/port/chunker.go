package port

import "github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document) ([]domain.Chunk, error)
}
