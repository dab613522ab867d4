package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits text into lowercase word tokens and character n-grams.
// Korean particles attach to the noun ("할머니는", "할머니가"), so the
// n-grams carry most of the matching signal for Hangul text.
type Tokenizer struct {
	stopwords map[string]struct{}
	ngramMin  int
	ngramMax  int
}

// NewTokenizer creates a Tokenizer emitting n-grams of ngramMin..ngramMax runes.
func NewTokenizer(ngramMin, ngramMax int) *Tokenizer {
	if ngramMin < 1 {
		ngramMin = 1
	}
	if ngramMax < ngramMin {
		ngramMax = ngramMin
	}
	return &Tokenizer{
		stopwords: defaultStopwords(),
		ngramMin:  ngramMin,
		ngramMax:  ngramMax,
	}
}

// Tokenize splits text into word tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if utf8.RuneCountInString(word) < 2 && !isHangul(word) {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Features returns word tokens followed by the character n-grams of each.
// N-grams are prefixed with "#" so they never collide with a whole word.
func (t *Tokenizer) Features(text string) []string {
	tokens := t.Tokenize(text)
	features := make([]string, 0, len(tokens)*4)
	features = append(features, tokens...)
	for _, tok := range tokens {
		for n := t.ngramMin; n <= t.ngramMax; n++ {
			for _, g := range CharNGrams(tok, n) {
				features = append(features, "#"+g)
			}
		}
	}
	return features
}

// CharNGrams returns the rune n-grams of word. A word shorter than n
// yields nothing.
func CharNGrams(word string, n int) []string {
	runes := []rune(word)
	if n <= 0 || len(runes) < n {
		return nil
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func isHangul(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.Is(unicode.Hangul, r)
}

// defaultStopwords returns common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
