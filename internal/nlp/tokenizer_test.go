package nlp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicportal/pkg/config"
)

func TestSimpleTokenizer(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"take two tablets", []string{"take", "two", "tablets"}},
		{"for 7 days.", []string{"for", "7", "days", "."}},
		{"x-ray at 2.5mg, o'clock", []string{"x-ray", "at", "2.5mg", ",", "o'clock"}},
		{"(ibuprofen)", []string{"(", "ibuprofen", ")"}},
		{"stop!!", []string{"stop", "!", "!"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SimpleTokenizer{}.Tokenize(tt.in), "input %q", tt.in)
	}
}

func TestLedger(t *testing.T) {
	l := NewLedger(5)
	assert.True(t, l.Free(0, 4))

	l.Claim(1, 2)
	assert.True(t, l.Claimed(1))
	assert.True(t, l.Claimed(2))
	assert.False(t, l.Claimed(3))
	assert.False(t, l.Free(0, 1))
	assert.True(t, l.Free(3, 4))

	assert.False(t, l.Free(4, 5), "out of range")
	assert.False(t, l.Claimed(-1))
	assert.False(t, l.Claimed(9))

	l.Claim(4, 10)
	assert.Equal(t, []int{1, 2, 4}, l.Indices())
}

func TestVocabulary(t *testing.T) {
	n, ok := parseCount("twelve")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = parseCount("42")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	n, ok = parseCount("2147483647")
	assert.True(t, ok)
	assert.Equal(t, 2147483647, n)

	for _, bad := range []string{"", "thirteen", "500mg", "2.5", "2147483648", "3000000000"} {
		_, ok := parseCount(bad)
		assert.False(t, ok, bad)
	}

	assert.True(t, isStopWord("tablets"))
	assert.False(t, isStopWord("week"))
	assert.True(t, isPunctuation(","))
	assert.False(t, isPunctuation("a"))
	assert.False(t, isPunctuation(".."))
	assert.True(t, isDigits("٣"))
	assert.False(t, isDigits("3a"))
}

func TestLexiconTagger(t *testing.T) {
	lex, err := ParseLexicon([]byte(`
tags:
  vb: [Take, apply]
  JJ: [topical]
`))
	require.NoError(t, err)

	tags, ok := lex.Tag([]string{"Apply", "topical", "cream", "6", ","})
	require.True(t, ok)
	assert.Equal(t, []string{"VB", "JJ", "NN", "CD", ","}, tags)
}

func TestParseLexicon_Errors(t *testing.T) {
	_, err := ParseLexicon([]byte("tags: {}"))
	assert.Error(t, err)

	_, err = ParseLexicon([]byte("tags: [unclosed"))
	assert.Error(t, err)

	_, err = LoadLexiconTagger(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewParserFromConfig_Fallbacks(t *testing.T) {
	p := NewParserFromConfig(config.NLPConfig{
		Tokenizer:   "simple",
		Tagger:      "lexicon",
		TaggerModel: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	assert.False(t, p.Tagged(), "unloadable lexicon must degrade to no tagger")
	assert.Equal(t, "apply cream", p.Parse("apply cream every 6 hours").Medication)
}

func TestNewParserFromConfig_Lexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tags:\n  VB: [apply]\n"), 0o600))

	p := NewParserFromConfig(config.NLPConfig{Tokenizer: "simple", Tagger: "lexicon", TaggerModel: path})
	assert.True(t, p.Tagged())
	assert.Equal(t, "cream", p.Parse("apply cream every 6 hours").Medication)
}
