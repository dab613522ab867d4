package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
)

// SeparatorChunker splits text on a separator and greedily merges
// consecutive pieces while the spanned source text stays within chunkSize
// runes. Each chunk after the first re-includes trailing pieces of its
// predecessor spanning at most overlap runes. A single piece longer than
// chunkSize becomes its own chunk.
type SeparatorChunker struct {
	separator string
	chunkSize int
	overlap   int
}

func NewSeparatorChunker(separator string, chunkSize, overlap int) *SeparatorChunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > chunkSize {
		overlap = chunkSize
	}
	return &SeparatorChunker{
		separator: separator,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// piece is a byte range of the source text between separators.
type piece struct {
	start int
	end   int
}

func (c *SeparatorChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	pieces := c.split(doc.Text)
	if len(pieces) == 0 {
		return nil, nil
	}

	// span measures the source text from the start of first to the end of last.
	span := func(first, last piece) int {
		return utf8.RuneCountInString(doc.Text[first.start:last.end])
	}

	var chunks []domain.Chunk
	var current []piece

	for _, p := range pieces {
		if len(current) > 0 && span(current[0], p) > c.chunkSize {
			if ch, ok := c.emit(doc, current, len(chunks)); ok {
				chunks = append(chunks, ch)
			}
			for len(current) > 0 &&
				(span(current[0], current[len(current)-1]) > c.overlap || span(current[0], p) > c.chunkSize) {
				current = current[1:]
			}
		}
		current = append(current, p)
	}

	if ch, ok := c.emit(doc, current, len(chunks)); ok {
		chunks = append(chunks, ch)
	}

	return chunks, nil
}

// split returns the non-blank pieces of text. An empty separator splits
// between every rune.
func (c *SeparatorChunker) split(text string) []piece {
	var pieces []piece
	add := func(start, end int) {
		if strings.TrimSpace(text[start:end]) == "" {
			return
		}
		pieces = append(pieces, piece{start: start, end: end})
	}

	if c.separator == "" {
		for i, r := range text {
			add(i, i+utf8.RuneLen(r))
		}
		return pieces
	}

	start := 0
	for {
		idx := strings.Index(text[start:], c.separator)
		if idx < 0 {
			add(start, len(text))
			break
		}
		add(start, start+idx)
		start += idx + len(c.separator)
	}
	return pieces
}

// emit builds a chunk spanning the given pieces, trimmed of surrounding
// whitespace so it stays a substring of the source.
func (c *SeparatorChunker) emit(doc domain.Document, pieces []piece, index int) (domain.Chunk, bool) {
	if len(pieces) == 0 {
		return domain.Chunk{}, false
	}
	start := pieces[0].start
	end := pieces[len(pieces)-1].end

	raw := doc.Text[start:end]
	trimmedLeft := strings.TrimLeftFunc(raw, unicode.IsSpace)
	start += len(raw) - len(trimmedLeft)
	text := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	end = start + len(text)
	if text == "" {
		return domain.Chunk{}, false
	}

	return domain.Chunk{
		ID:    generateChunkID(doc.ID, start, end),
		DocID: doc.ID,
		Index: index,
		Start: start,
		End:   end,
		Text:  text,
	}, true
}

func generateChunkID(docID string, start, end int) string {
	data := fmt.Sprintf("%s:%d-%d", docID, start, end)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
