package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer(2, 3)

	tokens := tok.Tokenize("Running dogs are playing")
	want := []string{"running", "dogs", "playing"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizer_Korean(t *testing.T) {
	tok := NewTokenizer(2, 3)

	tokens := tok.Tokenize("할머니는 매주 일요일 사과파이를 굽는다.")
	want := []string{"할머니는", "매주", "일요일", "사과파이를", "굽는다"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}

	// Single-syllable Hangul words are kept.
	tokens = tok.Tokenize("뭘 만드나요")
	if len(tokens) != 2 || tokens[0] != "뭘" {
		t.Errorf("expected single-syllable Hangul token to be kept, got %v", tokens)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(2, 3)

	tokens := tok.Tokenize("the quick brown fox")
	for _, token := range tokens {
		if token == "the" {
			t.Errorf("stopword 'the' should be removed, got %v", tokens)
		}
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer(2, 3)

	tokens := tok.Tokenize("a I go x")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_Features(t *testing.T) {
	tok := NewTokenizer(2, 2)

	features := tok.Features("일요일")
	want := []string{"일요일", "#일요", "#요일"}
	if !reflect.DeepEqual(features, want) {
		t.Errorf("expected %v, got %v", want, features)
	}
}

func TestCharNGrams(t *testing.T) {
	tests := []struct {
		word string
		n    int
		want []string
	}{
		{"할머니", 2, []string{"할머", "머니"}},
		{"abc", 3, []string{"abc"}},
		{"ab", 3, nil},
		{"abc", 0, nil},
	}
	for _, tt := range tests {
		got := CharNGrams(tt.word, tt.n)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CharNGrams(%q, %d) = %v, want %v", tt.word, tt.n, got, tt.want)
		}
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(2, 3)

	if tokens := tok.Tokenize(""); len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
	if features := tok.Features("   "); len(features) != 0 {
		t.Errorf("expected no features, got %v", features)
	}
}
