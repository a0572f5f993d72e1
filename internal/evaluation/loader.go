package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadGoldenTranscripts reads and parses a golden transcript set from a JSON file.
func LoadGoldenTranscripts(path string) ([]GoldenTranscript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden transcripts file: %w", err)
	}

	var transcripts []GoldenTranscript
	if err := json.Unmarshal(data, &transcripts); err != nil {
		return nil, fmt.Errorf("failed to parse golden transcripts: %w", err)
	}

	return transcripts, nil
}

// ValidateGoldenTranscripts checks that all golden transcripts have required fields and valid values.
func ValidateGoldenTranscripts(transcripts []GoldenTranscript) error {
	seen := make(map[string]struct{}, len(transcripts))

	for i, g := range transcripts {
		if g.ID == "" {
			return fmt.Errorf("transcript at index %d: missing id", i)
		}
		if _, dup := seen[g.ID]; dup {
			return fmt.Errorf("transcript at index %d: duplicate id %q", i, g.ID)
		}
		seen[g.ID] = struct{}{}

		if g.Transcript == "" {
			return fmt.Errorf("transcript %q: missing transcript text", g.ID)
		}
		if !g.Difficulty.IsValid() {
			return fmt.Errorf("transcript %q: invalid difficulty %q (must be easy/medium/hard)", g.ID, g.Difficulty)
		}
	}

	return nil
}
