package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

type requestIDKey struct{}

// WithRequestID attaches a request ID that Ingest uses in its log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// IngestUseCase runs a voice request through storage, transcription and
// answering. Only the answering step may retry, inside the answerer.
type IngestUseCase struct {
	audio       port.AudioStore
	transcriber port.Transcriber
	answerer    port.Answerer
	defaultMood string
}

func NewIngestUseCase(audio port.AudioStore, transcriber port.Transcriber, answerer port.Answerer, defaultMood string) *IngestUseCase {
	if strings.TrimSpace(defaultMood) == "" {
		defaultMood = domain.DefaultMood
	}
	return &IngestUseCase{
		audio:       audio,
		transcriber: transcriber,
		answerer:    answerer,
		defaultMood: defaultMood,
	}
}

// IngestResult carries the answer and what was produced along the way.
type IngestResult struct {
	Artifact   domain.AudioArtifact
	Transcript domain.Transcript
	Answer     domain.Answer
}

// Ingest stores data, transcribes it and forwards the transcript. A
// failure is returned as *domain.IngestError carrying the failed state.
func (u *IngestUseCase) Ingest(ctx context.Context, data []byte, filename string) (*IngestResult, error) {
	reqID := RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := logger.With("request_id", reqID)

	if len(data) == 0 {
		return nil, domain.ErrMissingFile
	}
	if strings.TrimSpace(filename) == "" {
		return nil, domain.ErrNoSelectedFile
	}
	transition(log, domain.StateReceived, "filename", filename, "bytes", len(data))

	artifact, err := u.audio.Save(data)
	if err != nil {
		return nil, fail(log, domain.StateStorageFailed, domain.ErrStorageFailed, err)
	}
	transition(log, domain.StateStored, "file", artifact.Name)

	stored, err := u.audio.Load(artifact)
	if err != nil {
		return nil, fail(log, domain.StateStorageFailed, domain.ErrStorageFailed, err)
	}

	transition(log, domain.StateTranscribing)
	transcript, err := u.transcriber.Transcribe(ctx, artifact.Name, stored)
	if err == nil && strings.TrimSpace(transcript.Text) == "" {
		err = fmt.Errorf("empty transcript")
	}
	if err != nil {
		return nil, fail(log, domain.StateTranscriptionFailed, domain.ErrTranscriptionFailed, err)
	}
	transition(log, domain.StateTranscribed, "transcript", transcript.Text)

	transition(log, domain.StateForwarding, "mood", u.defaultMood)
	answer, err := u.answerer.Answer(ctx, transcript.Text, u.defaultMood)
	if err != nil {
		return nil, fail(log, domain.StateForwardingFailed, domain.ErrForwardingFailed, err)
	}
	transition(log, domain.StateAnswered)

	return &IngestResult{
		Artifact:   artifact,
		Transcript: transcript,
		Answer:     answer,
	}, nil
}

func transition(log *slog.Logger, state domain.IngestState, args ...any) {
	log.Info("ingest "+state.String(), append([]any{"state", state.String()}, args...)...)
}

func fail(log *slog.Logger, state domain.IngestState, kind, err error) error {
	log.Error("ingest "+state.String(), "state", state.String(), "error", err)
	if !errors.Is(err, kind) {
		err = fmt.Errorf("%w: %w", kind, err)
	}
	return &domain.IngestError{State: state, Err: err}
}
