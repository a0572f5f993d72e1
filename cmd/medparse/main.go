package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/internal/nlp"
	"github.com/zatekoja/clinicportal/pkg/config"
)

// medparse extracts medication, dosage and duration from transcripts given as
// arguments, or one per line on stdin, and prints one JSON object per input.
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitCLILogger("medparse", cfg.Server.Env)

	parser := nlp.NewParserFromConfig(cfg.NLP)
	enc := json.NewEncoder(os.Stdout)

	if flag.NArg() > 0 {
		if err := enc.Encode(parser.Parse(strings.Join(flag.Args(), " "))); err != nil {
			log.Fatal().Err(err).Msg("failed to write result")
		}
		return
	}

	if err := parseLines(os.Stdin, parser, enc, maxLineBytes); err != nil {
		log.Fatal().Err(err).Msg("failed to process stdin")
	}
}

const maxLineBytes = 1 << 20

// parseLines encodes one result per non-blank line of r. Lines longer than
// limit bytes are logged and skipped.
func parseLines(r io.Reader, parser *nlp.Parser, enc *json.Encoder, limit int) error {
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, tooLong, err := readLine(br, limit)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", lineNo, err)
		}
		if tooLong {
			log.Warn().Int("line", lineNo).Int("limit", limit).Msg("skipping overlong transcript")
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := enc.Encode(parser.Parse(line)); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
}

// readLine returns the next line without its terminator. A line over limit
// is consumed and reported as tooLong.
func readLine(br *bufio.Reader, limit int) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}
