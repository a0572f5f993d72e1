package evaluation

import (
	"time"

	"github.com/zatekoja/clinicportal/internal/nlp"
)

// Difficulty buckets golden transcripts by how much of the idiom grammar
// they lean on.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"   // e.g., "paracetamol twice a day for 3 days"
	DifficultyMedium Difficulty = "medium" // number words, "x per day", hourly intervals
	DifficultyHard   Difficulty = "hard"   // competing numbers, stray number words, no idioms
)

// ValidDifficulties returns all valid difficulty values.
func ValidDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// IsValid checks if the difficulty is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Expected is the labeled extraction for a golden transcript.
type Expected struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Days       string `json:"days"`
}

// GoldenTranscript is a labeled dictation with its expected extraction.
type GoldenTranscript struct {
	ID         string     `json:"id"`
	Transcript string     `json:"transcript"`
	Expected   Expected   `json:"expected"`
	Difficulty Difficulty `json:"difficulty"`
}

// FieldMatch records which fields of a parse agreed with the label.
type FieldMatch struct {
	Medication bool `json:"medication"`
	Dosage     bool `json:"dosage"`
	Days       bool `json:"days"`
}

// All reports whether every field matched.
func (m FieldMatch) All() bool {
	return m.Medication && m.Dosage && m.Days
}

// EvalResult holds the evaluation outcome for a single transcript.
type EvalResult struct {
	ID         string          `json:"id"`
	Transcript string          `json:"transcript"`
	Difficulty Difficulty      `json:"difficulty"`
	Expected   Expected        `json:"expected"`
	Got        nlp.ParseResult `json:"got"`
	Match      FieldMatch      `json:"match"`
	Latency    time.Duration   `json:"latency"`
}

// EvalSummary holds aggregate accuracy across all golden transcripts.
type EvalSummary struct {
	Total              int                               `json:"total"`
	MedicationAccuracy float64                           `json:"medication_accuracy"`
	DosageAccuracy     float64                           `json:"dosage_accuracy"`
	DaysAccuracy       float64                           `json:"days_accuracy"`
	ExactAccuracy      float64                           `json:"exact_accuracy"`
	AvgLatency         time.Duration                     `json:"avg_latency"`
	ByDifficulty       map[Difficulty]*DifficultySummary `json:"by_difficulty"`
	Misses             []EvalResult                      `json:"misses,omitempty"`
}

// DifficultySummary holds accuracy grouped by difficulty.
type DifficultySummary struct {
	Count         int     `json:"count"`
	ExactAccuracy float64 `json:"exact_accuracy"`
}
