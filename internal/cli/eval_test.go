package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/mocks"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/usecase"
)

func TestLoadEvalCases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- query: "할머니가 일요일에 뭘 만드나요?"
  expect: "사과파이"
- query: "고향"
  expect: "바닷가"
`), 0644))

	cases, err := loadEvalCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "사과파이", cases[0].Expect)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- query: \"q\"\n"), 0644))
	_, err = loadEvalCases(bad)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	chunk := func(text string, score float64) domain.ScoredChunk {
		return domain.ScoredChunk{Chunk: domain.Chunk{ID: text, Text: text}, Score: score}
	}

	r := new(mocks.MockRetriever)
	r.On("Search", mock.Anything, "q1", 2).
		Return([]domain.ScoredChunk{chunk("사과파이", 0.8), chunk("고향", 0.4)}, nil)
	r.On("Search", mock.Anything, "q2", 2).
		Return([]domain.ScoredChunk{chunk("선생님", 0.6), chunk("바닷가", 0.5)}, nil)
	r.On("Search", mock.Anything, "q3", 2).
		Return([]domain.ScoredChunk{chunk("선생님", 0.2)}, nil)

	report, err := evaluate(context.Background(), usecase.NewRetrieveUseCase(r, nil, 0), []evalCase{
		{Query: "q1", Expect: "사과파이"},
		{Query: "q2", Expect: "바닷가"},
		{Query: "q3", Expect: "해바라기"},
	}, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Outcomes[0].Rank)
	assert.Equal(t, 2, report.Outcomes[1].Rank)
	assert.Equal(t, 0, report.Outcomes[2].Rank)
	assert.InDelta(t, 2.0/3.0, report.HitRate, 1e-9)
	assert.InDelta(t, (1+0.5)/3.0, report.MRR, 1e-9)
	assert.InDelta(t, (0.8+0.6+0.2)/3.0, report.AvgTop1, 1e-9)
}
