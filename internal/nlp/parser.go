// Package nlp extracts structured medication orders from free-text
// prescription transcripts using rules over tokens and optional
// part-of-speech tags.
package nlp

import "strings"

// ParseResult is the structured form of one transcript. Each field is either
// empty or trimmed non-empty text.
type ParseResult struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Days       string `json:"days"`
}

// IsEmpty reports whether no field was extracted.
func (r ParseResult) IsEmpty() bool {
	return strings.TrimSpace(r.Medication) == "" &&
		strings.TrimSpace(r.Dosage) == "" &&
		strings.TrimSpace(r.Days) == ""
}

// Step is one extractor in the parse pipeline.
type Step struct {
	Name string
	Run  func(doc *Document, result *ParseResult)
}

// DefaultPipeline returns the extractor order. Duration runs before dosage so
// that "for seven days" is never read as a frequency, and medication runs last
// over whatever is left unclaimed.
func DefaultPipeline() []Step {
	return []Step{
		{Name: "duration", Run: func(doc *Document, r *ParseResult) { r.Days = ExtractDuration(doc) }},
		{Name: "dosage", Run: func(doc *Document, r *ParseResult) { r.Dosage = ExtractDosage(doc) }},
		{Name: "medication", Run: func(doc *Document, r *ParseResult) { r.Medication = ExtractMedication(doc) }},
	}
}

// Parser turns transcripts into ParseResults. It is safe for concurrent use
// as long as its Tokenizer and Tagger are.
type Parser struct {
	tokenizer Tokenizer
	tagger    Tagger
	steps     []Step
}

// NewParser creates a parser with the default pipeline. A nil tokenizer means
// SimpleTokenizer and a nil tagger means NoTagger.
func NewParser(tokenizer Tokenizer, tagger Tagger) *Parser {
	if tokenizer == nil {
		tokenizer = SimpleTokenizer{}
	}
	if tagger == nil {
		tagger = NoTagger{}
	}
	return &Parser{
		tokenizer: tokenizer,
		tagger:    tagger,
		steps:     DefaultPipeline(),
	}
}

// Parse extracts medication, dosage and duration from a transcript. It never
// fails; fields with no match are empty.
func (p *Parser) Parse(transcript string) ParseResult {
	var result ParseResult
	if strings.TrimSpace(transcript) == "" {
		return result
	}

	raw := p.tokenizer.Tokenize(transcript)
	if len(raw) == 0 {
		return result
	}
	tags, tagged := p.tagger.Tag(raw)
	doc := NewDocument(raw, tags, tagged)

	for _, step := range p.steps {
		step.Run(doc, &result)
	}

	result.Medication = strings.TrimSpace(result.Medication)
	result.Dosage = strings.TrimSpace(result.Dosage)
	result.Days = strings.TrimSpace(result.Days)
	return result
}

// Tagged reports whether the parser has a real tagging capability.
func (p *Parser) Tagged() bool {
	_, none := p.tagger.(NoTagger)
	return !none
}
