package retriever

import (
	"testing"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/analyzer"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
)

func scored(id, text string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: domain.Chunk{ID: id, Text: text}, Score: score}
}

func TestMMRReranking(t *testing.T) {
	reranker := NewMMRReranker(analyzer.NewTokenizer(2, 3), 0.7, 0.9)

	candidates := []domain.ScoredChunk{
		scored("c1", "auth login user password", 1.0),
		scored("c2", "auth login user session", 0.9),
		scored("c3", "database query sql connection", 0.8),
		scored("c4", "auth jwt token oauth", 0.7),
	}

	results := reranker.Rerank(candidates, 3)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "c1" {
		t.Errorf("expected c1 as first result, got %s", results[0].Chunk.ID)
	}
	if results[1].Chunk.ID != "c3" {
		t.Errorf("expected diverse c3 second, got %s", results[1].Chunk.ID)
	}
}

func TestMMRDeduplication(t *testing.T) {
	reranker := NewMMRReranker(analyzer.NewTokenizer(2, 3), 0.5, 0.3)

	candidates := []domain.ScoredChunk{
		scored("c1", "할머니는 사과파이를 굽는다", 1.0),
		scored("c2", "할머니는 사과파이를 굽는다", 0.9),
	}

	results := reranker.Rerank(candidates, 2)

	if len(results) != 1 {
		t.Fatalf("expected 1 result after dedup, got %d", len(results))
	}
	if results[0].Chunk.ID != "c1" {
		t.Errorf("expected c1 (highest score), got %s", results[0].Chunk.ID)
	}
}

func TestMMREmptyCandidates(t *testing.T) {
	reranker := NewMMRReranker(analyzer.NewTokenizer(2, 3), 0.7, 0.8)

	if results := reranker.Rerank(nil, 10); results != nil {
		t.Errorf("expected nil for empty candidates, got %v", results)
	}
	if results := reranker.Rerank([]domain.ScoredChunk{scored("c1", "x", 1)}, 0); results != nil {
		t.Errorf("expected nil for k=0, got %v", results)
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []string
		b        []string
		expected float64
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"no overlap", []string{"a", "b", "c"}, []string{"d", "e", "f"}, 0.0},
		{"half overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
		{"empty a", []string{}, []string{"a", "b"}, 0.0},
		{"both empty", []string{}, []string{}, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := jaccardSimilarity(tc.a, tc.b)
			if !floatEquals(result, tc.expected, 0.001) {
				t.Errorf("jaccardSimilarity(%v, %v) = %f, expected %f", tc.a, tc.b, result, tc.expected)
			}
		})
	}
}

func floatEquals(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < tolerance
}
