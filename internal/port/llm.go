package port

import (
	"context"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
)

// GenerateParams are per-call generation settings.
type GenerateParams struct {
	Temperature float64
	MaxTokens   int // 0 leaves the engine default
}

// Generator is a text-completion engine.
type Generator interface {
	// Generate returns the completion for a fully assembled prompt.
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// Answerer turns a query into a grounded answer. Satisfied in-process by
// the answering service and remotely by the HTTP client.
type Answerer interface {
	Answer(ctx context.Context, query, mood string) (domain.Answer, error)
}

// AnswerValidator may reject generated text, e.g. for wrong language.
type AnswerValidator interface {
	Validate(ctx context.Context, query string, answer domain.Answer) error
}
