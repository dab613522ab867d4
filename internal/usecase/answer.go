package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

// maxEvidence caps the evidence path regardless of configuration.
const maxEvidence = 3

var _ port.Answerer = (*AnswerService)(nil)

// AnswerService is the retrieval-augmented answering service. It keeps no
// state between calls.
type AnswerService struct {
	retrieve  *RetrieveUseCase
	composer  *Composer
	topK      int
	evidenceK int
}

func NewAnswerService(retrieve *RetrieveUseCase, composer *Composer, topK, evidenceK int) *AnswerService {
	if topK <= 0 {
		topK = 4
	}
	if evidenceK <= 0 || evidenceK > maxEvidence {
		evidenceK = maxEvidence
	}
	return &AnswerService{
		retrieve:  retrieve,
		composer:  composer,
		topK:      topK,
		evidenceK: evidenceK,
	}
}

// Answer retrieves the top chunks for query and composes a persona answer.
// A blank mood becomes domain.DefaultMood.
func (s *AnswerService) Answer(ctx context.Context, query, mood string) (domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Answer{}, domain.ErrInvalidQuery
	}
	if strings.TrimSpace(mood) == "" {
		mood = domain.DefaultMood
	}

	chunks, err := s.retrieve.Retrieve(ctx, query, s.topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("failed to retrieve context: %w", err)
	}

	return s.composer.Compose(ctx, query, mood, chunks)
}

// Evidence returns the texts of the best matching chunks, best first.
func (s *AnswerService) Evidence(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidQuery
	}

	chunks, err := s.retrieve.Retrieve(ctx, query, s.evidenceK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve evidence: %w", err)
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Chunk.Text)
	}
	return texts, nil
}
