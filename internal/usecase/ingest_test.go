package usecase

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/audio"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/mocks"
)

type brokenStore struct{}

func (brokenStore) Save([]byte) (domain.AudioArtifact, error) {
	return domain.AudioArtifact{}, errors.New("disk full")
}

func (brokenStore) Load(domain.AudioArtifact) ([]byte, error) {
	return nil, errors.New("unreachable")
}

func newIngest(t *testing.T) (*IngestUseCase, *mocks.MockTranscriber, *mocks.MockAnswerer, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := audio.NewFileStore(dir, ".wav", 0)
	require.NoError(t, err)

	stt := new(mocks.MockTranscriber)
	ans := new(mocks.MockAnswerer)
	return NewIngestUseCase(store, stt, ans, ""), stt, ans, dir
}

func requireState(t *testing.T, err error, state domain.IngestState, kind error) {
	t.Helper()
	var ie *domain.IngestError
	require.True(t, errors.As(err, &ie), "expected IngestError, got %v", err)
	assert.Equal(t, state, ie.State)
	assert.True(t, ie.State.Terminal())
	assert.ErrorIs(t, err, kind)
}

func TestIngestSuccess(t *testing.T) {
	uc, stt, ans, dir := newIngest(t)
	stt.On("Transcribe", mock.Anything, "audio1.wav", []byte("RIFFdata")).
		Return(domain.Transcript{Text: "할머니 일요일에 뭐 해?"}, nil).Once()
	ans.On("Answer", mock.Anything, "할머니 일요일에 뭐 해?", "neutral").
		Return(domain.Answer{Text: "사과파이 굽지"}, nil).Once()

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	ctx := WithRequestID(context.Background(), "req-123")
	result, err := uc.Ingest(ctx, []byte("RIFFdata"), "blob")
	require.NoError(t, err)
	assert.Equal(t, "사과파이 굽지", result.Answer.Text)
	assert.Equal(t, "audio1.wav", result.Artifact.Name)
	assert.Equal(t, "할머니 일요일에 뭐 해?", result.Transcript.Text)

	stored, err := os.ReadFile(filepath.Join(dir, "audio1.wav"))
	require.NoError(t, err)
	assert.Equal(t, "RIFFdata", string(stored))

	for _, state := range []string{"received", "stored", "transcribing", "transcribed", "forwarding", "answered"} {
		assert.Contains(t, logs.String(), "state="+state)
	}
	assert.Contains(t, logs.String(), "request_id=req-123")

	stt.AssertExpectations(t)
	ans.AssertExpectations(t)
}

func TestIngestInvalidInput(t *testing.T) {
	uc, stt, ans, _ := newIngest(t)

	_, err := uc.Ingest(context.Background(), nil, "blob")
	assert.ErrorIs(t, err, domain.ErrMissingFile)

	_, err = uc.Ingest(context.Background(), []byte("RIFF"), "")
	assert.ErrorIs(t, err, domain.ErrNoSelectedFile)
	assert.True(t, domain.IsInvalidInput(err))

	stt.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
	ans.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestStorageFailure(t *testing.T) {
	stt := new(mocks.MockTranscriber)
	ans := new(mocks.MockAnswerer)
	uc := NewIngestUseCase(brokenStore{}, stt, ans, "neutral")

	_, err := uc.Ingest(context.Background(), []byte("RIFF"), "blob")
	requireState(t, err, domain.StateStorageFailed, domain.ErrStorageFailed)
	stt.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestTranscriptionFailureNeverForwards(t *testing.T) {
	tests := []struct {
		name       string
		transcript domain.Transcript
		err        error
	}{
		{"engine error", domain.Transcript{}, errors.New("status 500")},
		{"empty transcript", domain.Transcript{Text: "  "}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc, stt, ans, _ := newIngest(t)
			stt.On("Transcribe", mock.Anything, mock.Anything, mock.Anything).Return(tc.transcript, tc.err).Once()

			_, err := uc.Ingest(context.Background(), []byte("RIFF"), "blob")
			requireState(t, err, domain.StateTranscriptionFailed, domain.ErrTranscriptionFailed)

			stt.AssertNumberOfCalls(t, "Transcribe", 1)
			ans.AssertNumberOfCalls(t, "Answer", 0)
		})
	}
}

func TestIngestForwardingFailure(t *testing.T) {
	uc, stt, ans, dir := newIngest(t)
	stt.On("Transcribe", mock.Anything, mock.Anything, mock.Anything).Return(domain.Transcript{Text: "안녕"}, nil)
	ans.On("Answer", mock.Anything, "안녕", "neutral").Return(domain.Answer{}, domain.ErrGenerationFailed)

	_, err := uc.Ingest(context.Background(), []byte("RIFF"), "blob")
	requireState(t, err, domain.StateForwardingFailed, domain.ErrForwardingFailed)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)

	_, statErr := os.Stat(filepath.Join(dir, "audio1.wav"))
	assert.NoError(t, statErr, "audio is retained after a failed request")
}
