package port

import (
	"context"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
)

// Transcriber is a speech-to-text engine.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, data []byte) (domain.Transcript, error)
}

// AudioStore persists uploaded audio under collision-free names.
type AudioStore interface {
	Save(data []byte) (domain.AudioArtifact, error)

	Load(artifact domain.AudioArtifact) ([]byte, error)
}
