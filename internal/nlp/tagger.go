package nlp

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tagger attaches a part-of-speech tag to every token. The boolean result is
// false when tagging is unavailable; callers must not treat an empty slice as
// "untagged".
type Tagger interface {
	Tag(tokens []string) ([]string, bool)
}

// NoTagger is the absent tagging capability.
type NoTagger struct{}

// Tag implements Tagger.
func (NoTagger) Tag([]string) ([]string, bool) {
	return nil, false
}

// isNameTag reports whether a Penn Treebank tag is a noun or adjective.
func isNameTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "JJ")
}

// LexiconTagger tags tokens from a word → tag table loaded from a model file.
// Words missing from the table fall back to shape rules: digits are CD,
// single punctuation runes tag as themselves, anything else is NN.
type LexiconTagger struct {
	lexicon map[string]string
}

type lexiconFile struct {
	Tags map[string][]string `yaml:"tags"`
}

// LoadLexiconTagger reads a YAML lexicon of the form
//
//	tags:
//	  VB: [take, apply, use]
//	  NN: [cream, ointment]
func LoadLexiconTagger(path string) (*LexiconTagger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tagger lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon builds a LexiconTagger from YAML lexicon bytes.
func ParseLexicon(data []byte) (*LexiconTagger, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tagger lexicon: %w", err)
	}
	if len(file.Tags) == 0 {
		return nil, fmt.Errorf("tagger lexicon has no entries")
	}

	lexicon := make(map[string]string)
	for tag, words := range file.Tags {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				lexicon[w] = tag
			}
		}
	}
	return &LexiconTagger{lexicon: lexicon}, nil
}

// Tag implements Tagger. It always tags every token.
func (t *LexiconTagger) Tag(tokens []string) ([]string, bool) {
	tags := make([]string, len(tokens))
	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		switch tag, ok := t.lexicon[lower]; {
		case ok:
			tags[i] = tag
		case isDigits(lower):
			tags[i] = "CD"
		case isPunctuation(tok):
			tags[i] = tok
		default:
			tags[i] = "NN"
		}
	}
	return tags, true
}
