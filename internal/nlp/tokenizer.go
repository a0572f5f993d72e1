package nlp

import (
	"strings"
	"unicode"
)

// Token is one lexical unit of a transcript.
type Token struct {
	Text  string // as written
	Lower string
}

// Tokenizer splits a transcript into ordered token strings. Implementations
// must be safe for concurrent use and must not fail; an empty or blank input
// yields no tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// SimpleTokenizer splits on whitespace and isolates punctuation. A punctuation
// or symbol rune stays inside a word only when it sits between two letters or
// digits, so "x-ray" and "2.5" survive while "days." becomes "days" ".".
type SimpleTokenizer struct{}

// Tokenize implements Tokenizer.
func (SimpleTokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(text) {
		tokens = appendSplitField(tokens, []rune(field))
	}
	return tokens
}

func appendSplitField(tokens []string, runes []rune) []string {
	start := 0
	for i, r := range runes {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			continue
		}
		if i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
			continue
		}
		if start < i {
			tokens = append(tokens, string(runes[start:i]))
		}
		tokens = append(tokens, string(r))
		start = i + 1
	}
	if start < len(runes) {
		tokens = append(tokens, string(runes[start:]))
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// newTokens pairs every raw token with its lowercase form.
func newTokens(raw []string) []Token {
	tokens := make([]Token, len(raw))
	for i, text := range raw {
		tokens[i] = Token{Text: text, Lower: strings.ToLower(text)}
	}
	return tokens
}
