package evaluation

import "fmt"

// GuardrailConfig sets the minimum accuracy an evaluation run must reach.
type GuardrailConfig struct {
	MinExactAccuracy float64
	MinFieldAccuracy float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinExactAccuracy < 0 {
		config.MinExactAccuracy = 0
	}
	if config.MinFieldAccuracy < 0 {
		config.MinFieldAccuracy = 0
	}
	return &Guardrails{config: config}
}

// Violations lists every threshold the summary falls below.
func (g *Guardrails) Violations(s *EvalSummary) []string {
	var out []string
	if s.ExactAccuracy < g.config.MinExactAccuracy {
		out = append(out, fmt.Sprintf("exact accuracy %.3f below %.3f", s.ExactAccuracy, g.config.MinExactAccuracy))
	}
	fields := []struct {
		name string
		acc  float64
	}{
		{"medication", s.MedicationAccuracy},
		{"dosage", s.DosageAccuracy},
		{"days", s.DaysAccuracy},
	}
	for _, f := range fields {
		if f.acc < g.config.MinFieldAccuracy {
			out = append(out, fmt.Sprintf("%s accuracy %.3f below %.3f", f.name, f.acc, g.config.MinFieldAccuracy))
		}
	}
	return out
}

// Passed reports whether the summary meets every threshold.
func (g *Guardrails) Passed(s *EvalSummary) bool {
	return len(g.Violations(s)) == 0
}
