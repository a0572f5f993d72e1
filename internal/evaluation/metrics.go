package evaluation

import "strings"

// normalizeField lowercases and collapses whitespace so labels written by
// hand compare equal to parser output.
func normalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FieldEqual compares an expected and extracted field.
func FieldEqual(expected, got string) bool {
	return normalizeField(expected) == normalizeField(got)
}

// Compare scores one parse against its label.
func Compare(expected Expected, medication, dosage, days string) FieldMatch {
	return FieldMatch{
		Medication: FieldEqual(expected.Medication, medication),
		Dosage:     FieldEqual(expected.Dosage, dosage),
		Days:       FieldEqual(expected.Days, days),
	}
}

// Accuracy returns hits/total, or 0 when total is 0.
func Accuracy(hits, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}
