package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/evaluation"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/internal/nlp"
	"github.com/zatekoja/clinicportal/pkg/config"
)

// parserAdapter adapts nlp.Parser to evaluation.Parser
type parserAdapter struct {
	parser *nlp.Parser
}

func (a parserAdapter) Parse(_ context.Context, transcript string) nlp.ParseResult {
	return a.parser.Parse(transcript)
}

func main() {
	var (
		goldenPath string
		minExact   float64
		minField   float64
	)
	flag.StringVar(&goldenPath, "golden", "config/golden_transcripts.json", "golden transcript set")
	flag.Float64Var(&minExact, "min-exact", 0, "fail when exact-match accuracy is below this")
	flag.Float64Var(&minField, "min-field", 0, "fail when any single field accuracy is below this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitCLILogger("medication-evaluate", cfg.Server.Env)

	transcripts, err := evaluation.LoadGoldenTranscripts(goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load golden transcripts")
	}
	if err := evaluation.ValidateGoldenTranscripts(transcripts); err != nil {
		log.Fatal().Err(err).Msg("invalid golden transcripts")
	}

	parser := nlp.NewParserFromConfig(cfg.NLP)
	summary, err := evaluation.NewRunner(parserAdapter{parser: parser}).Run(context.Background(), transcripts)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	guard := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinExactAccuracy: minExact,
		MinFieldAccuracy: minField,
	})
	if violations := guard.Violations(summary); len(violations) > 0 {
		for _, v := range violations {
			log.Error().Msg(v)
		}
		os.Exit(1)
	}
}
