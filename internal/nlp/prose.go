package nlp

import (
	"fmt"
	"strings"

	"github.com/tsawler/prose/v3"
)

// probeText is tokenized and tagged once at startup. The tagger keeps the model
// prose loaded for it, so requests never decode the model again.
const probeText = "take one tablet twice a day"

// ProseTokenizer tokenizes with the prose iterative tokenizer (contractions,
// quotes and trailing punctuation handled). When prose rejects an input the
// transcript is split with SimpleTokenizer instead.
type ProseTokenizer struct {
	fallback SimpleTokenizer
}

// NewProseTokenizer verifies that prose can tokenize before returning.
func NewProseTokenizer() (*ProseTokenizer, error) {
	t := &ProseTokenizer{}
	if _, err := proseTokens(probeText, prose.WithTagging(false)); err != nil {
		return nil, fmt.Errorf("prose tokenizer unavailable: %w", err)
	}
	return t, nil
}

// Tokenize implements Tokenizer.
func (t *ProseTokenizer) Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	toks, err := proseTokens(text, prose.WithTagging(false))
	if err != nil {
		return t.fallback.Tokenize(text)
	}
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

// ProseTagger assigns Penn Treebank tags with the prose averaged perceptron.
// prose re-tokenizes its input, so a call whose tokens do not line up one to
// one with prose's tokens is reported as untagged.
type ProseTagger struct {
	model *prose.Model
}

// NewProseTagger loads the prose tagging model once and keeps it for every
// later call.
func NewProseTagger() (*ProseTagger, error) {
	doc, err := proseDocument(probeText, prose.WithTagging(true))
	if err != nil {
		return nil, fmt.Errorf("prose tagger unavailable: %w", err)
	}
	toks := doc.Tokens()
	if len(toks) == 0 || toks[0].Tag == "" || doc.Model == nil {
		return nil, fmt.Errorf("prose tagger unavailable: probe produced no tags")
	}
	return &ProseTagger{model: doc.Model}, nil
}

// Tag implements Tagger.
func (t *ProseTagger) Tag(tokens []string) ([]string, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	toks, err := proseTokens(strings.Join(tokens, " "),
		prose.WithTagging(true),
		prose.UsingModel(t.model),
	)
	if err != nil || len(toks) != len(tokens) {
		return nil, false
	}
	tags := make([]string, len(toks))
	for i, tok := range toks {
		if tok.Text != tokens[i] {
			return nil, false
		}
		tags[i] = tok.Tag
	}
	return tags, true
}

func proseTokens(text string, opts ...prose.DocOpt) ([]prose.Token, error) {
	doc, err := proseDocument(text, opts...)
	if err != nil {
		return nil, err
	}
	return doc.Tokens(), nil
}

// proseDocument runs prose without sentence segmentation or entity
// extraction. A panic while prose loads its model is reported as an error.
func proseDocument(text string, opts ...prose.DocOpt) (doc *prose.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("prose panicked: %v", r)
		}
	}()

	opts = append([]prose.DocOpt{
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	}, opts...)
	return prose.NewDocument(text, opts...)
}
