// Package mocks holds testify doubles for the engine ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var (
	_ port.Generator   = (*MockGenerator)(nil)
	_ port.Transcriber = (*MockTranscriber)(nil)
	_ port.Answerer    = (*MockAnswerer)(nil)
	_ port.Retriever   = (*MockRetriever)(nil)
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, params port.GenerateParams) (string, error) {
	args := m.Called(ctx, prompt, params)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) ModelName() string {
	return "mock-generator"
}

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, filename string, data []byte) (domain.Transcript, error) {
	args := m.Called(ctx, filename, data)
	return args.Get(0).(domain.Transcript), args.Error(1)
}

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, query, mood string) (domain.Answer, error) {
	args := m.Called(ctx, query, mood)
	return args.Get(0).(domain.Answer), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, query, k)
	chunks, _ := args.Get(0).([]domain.ScoredChunk)
	return chunks, args.Error(1)
}
