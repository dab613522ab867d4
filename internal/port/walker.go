package port

import "github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// CorpusLoader reads the source documents from a file or directory.
type CorpusLoader interface {
	Load(source string) ([]domain.Document, error)
}
