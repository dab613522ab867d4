package usecase

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

//go:embed templates/grandma_prompt.txt
var grandmaPrompt string

var promptTemplate = template.Must(template.New("grandma").Parse(grandmaPrompt))

var errEmptyOutput = errors.New("engine returned empty output")

type promptData struct {
	Context string
	Mood    string
	Input   string
}

// ComposeOptions tune the generation call.
type ComposeOptions struct {
	Temperature    float64
	MaxTokens      int
	MaxRetries     int           // extra attempts after the first
	Timeout        time.Duration // whole call, retries included; 0 = unbounded
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Composer renders the persona prompt around retrieved chunks and asks the
// generation engine for an answer.
type Composer struct {
	generator port.Generator
	validator port.AnswerValidator
	opts      ComposeOptions
}

func NewComposer(generator port.Generator, opts ComposeOptions) *Composer {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 8 * time.Second
	}
	return &Composer{
		generator: generator,
		opts:      opts,
	}
}

// SetValidator installs a hook that may reject generated answers. A
// rejection counts as a failed attempt.
func (c *Composer) SetValidator(v port.AnswerValidator) {
	c.validator = v
}

// RenderPrompt fills the persona template. Chunk texts are joined with a
// blank line.
func RenderPrompt(query, mood string, chunks []domain.ScoredChunk) (string, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk.Text
	}

	var sb strings.Builder
	err := promptTemplate.Execute(&sb, promptData{
		Context: strings.Join(texts, "\n\n"),
		Mood:    mood,
		Input:   query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}

// Compose returns the engine's answer verbatim. Errors and empty outputs
// are retried with exponential backoff; once attempts run out the error
// wraps domain.ErrGenerationFailed.
func (c *Composer) Compose(ctx context.Context, query, mood string, chunks []domain.ScoredChunk) (domain.Answer, error) {
	prompt, err := RenderPrompt(query, mood, chunks)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	params := port.GenerateParams{
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	attempts := c.opts.MaxRetries + 1
	backoff := c.opts.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		answer, err := c.attempt(ctx, query, prompt, params)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		logger.Warn("generation attempt failed",
			"attempt", attempt,
			"max_attempts", attempts,
			"model", c.generator.ModelName(),
			"error", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return domain.Answer{}, fmt.Errorf("%w: %w (last error: %v)", domain.ErrGenerationFailed, ctx.Err(), lastErr)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.opts.MaxBackoff)
	}

	return domain.Answer{}, fmt.Errorf("%w after %d attempts: %w", domain.ErrGenerationFailed, attempts, lastErr)
}

func (c *Composer) attempt(ctx context.Context, query, prompt string, params port.GenerateParams) (domain.Answer, error) {
	out, err := c.generator.Generate(ctx, prompt, params)
	if err != nil {
		return domain.Answer{}, err
	}
	if strings.TrimSpace(out) == "" {
		return domain.Answer{}, errEmptyOutput
	}

	answer := domain.Answer{Text: out}
	if c.validator != nil {
		if err := c.validator.Validate(ctx, query, answer); err != nil {
			return domain.Answer{}, fmt.Errorf("answer rejected: %w", err)
		}
	}
	return answer, nil
}
