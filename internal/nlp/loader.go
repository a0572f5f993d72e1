package nlp

import (
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/pkg/config"
)

// NewParserFromConfig selects the tokenizer and tagger once. A backend that
// fails to initialize is logged and replaced by its fallback for the lifetime
// of the process; it is never retried.
func NewParserFromConfig(cfg config.NLPConfig) *Parser {
	p := NewParser(loadTokenizer(cfg), loadTagger(cfg))
	log.Info().Str("tokenizer", cfg.Tokenizer).Bool("tagged", p.Tagged()).Msg("medication parser ready")
	return p
}

func loadTokenizer(cfg config.NLPConfig) Tokenizer {
	if cfg.Tokenizer != "prose" {
		return SimpleTokenizer{}
	}
	t, err := NewProseTokenizer()
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer model unavailable; using simple tokenization")
		return SimpleTokenizer{}
	}
	log.Info().Msg("prose tokenizer loaded")
	return t
}

func loadTagger(cfg config.NLPConfig) Tagger {
	var (
		tagger Tagger
		err    error
	)
	switch cfg.Tagger {
	case "prose":
		tagger, err = NewProseTagger()
	case "lexicon":
		tagger, err = LoadLexiconTagger(cfg.TaggerModel)
	default:
		return NoTagger{}
	}
	if err != nil {
		log.Warn().Err(err).Str("tagger", cfg.Tagger).
			Msg("POS tagger unavailable; medication extraction will be less accurate")
		return NoTagger{}
	}
	log.Info().Str("tagger", cfg.Tagger).Msg("POS tagger loaded")
	return tagger
}
