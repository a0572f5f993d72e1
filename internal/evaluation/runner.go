package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/clinicportal/internal/nlp"
)

// Parser is anything that extracts a medication order from a transcript.
type Parser interface {
	Parse(ctx context.Context, transcript string) nlp.ParseResult
}

// Runner runs evaluation across a set of golden transcripts.
type Runner struct {
	parser Parser
}

func NewRunner(parser Parser) *Runner {
	return &Runner{parser: parser}
}

func (r *Runner) Run(ctx context.Context, transcripts []GoldenTranscript) (*EvalSummary, error) {
	summary := &EvalSummary{
		Total:        len(transcripts),
		ByDifficulty: make(map[Difficulty]*DifficultySummary),
	}

	var medHits, doseHits, dayHits, exactHits int
	for _, g := range transcripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		got := r.parser.Parse(ctx, g.Transcript)
		latency := time.Since(start)

		result := EvalResult{
			ID:         g.ID,
			Transcript: g.Transcript,
			Difficulty: g.Difficulty,
			Expected:   g.Expected,
			Got:        got,
			Match:      Compare(g.Expected, got.Medication, got.Dosage, got.Days),
			Latency:    latency,
		}

		if result.Match.Medication {
			medHits++
		}
		if result.Match.Dosage {
			doseHits++
		}
		if result.Match.Days {
			dayHits++
		}
		summary.AvgLatency += latency

		ds, ok := summary.ByDifficulty[g.Difficulty]
		if !ok {
			ds = &DifficultySummary{}
			summary.ByDifficulty[g.Difficulty] = ds
		}
		ds.Count++
		if result.Match.All() {
			exactHits++
			ds.ExactAccuracy++
		} else {
			summary.Misses = append(summary.Misses, result)
		}
	}

	summary.MedicationAccuracy = Accuracy(medHits, summary.Total)
	summary.DosageAccuracy = Accuracy(doseHits, summary.Total)
	summary.DaysAccuracy = Accuracy(dayHits, summary.Total)
	summary.ExactAccuracy = Accuracy(exactHits, summary.Total)
	if summary.Total > 0 {
		summary.AvgLatency /= time.Duration(summary.Total)
	}
	for _, ds := range summary.ByDifficulty {
		if ds.Count > 0 {
			ds.ExactAccuracy /= float64(ds.Count)
		}
	}

	return summary, nil
}
