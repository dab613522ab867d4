package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var _ port.CorpusLoader = (*Loader)(nil)

// Loader reads the corpus. A file source yields one document; a
// directory source yields every file the walker matches.
type Loader struct {
	walker *Walker
}

func NewLoader(walker *Walker) *Loader {
	return &Loader{walker: walker}
}

func (l *Loader) Load(source string) ([]domain.Document, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus source: %w", err)
	}

	var files []port.FileInfo
	if info.IsDir() {
		files, err = l.walker.Walk(source)
		if err != nil {
			return nil, fmt.Errorf("failed to walk corpus directory: %w", err)
		}
	} else {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, err
		}
		files = []port.FileInfo{{Path: abs, ModTime: info.ModTime().Unix(), Size: info.Size()}}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no corpus documents found in %s", source)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		text, err := ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}
		if !utf8.ValidString(text) {
			return nil, fmt.Errorf("corpus file %s is not valid UTF-8", f.Path)
		}
		docs = append(docs, domain.Document{
			ID:      generateDocID(f.Path),
			Path:    f.Path,
			ModTime: time.Unix(f.ModTime, 0),
			Text:    text,
		})
	}
	return docs, nil
}

func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
