package nlp

// Ledger records which token positions an extractor has already given a
// meaning to. It belongs to a single Parse call.
type Ledger struct {
	claimed []bool
}

// NewLedger returns an empty ledger for n tokens.
func NewLedger(n int) *Ledger {
	return &Ledger{claimed: make([]bool, n)}
}

// Claim marks start..end (inclusive) as consumed. Out-of-range positions are ignored.
func (l *Ledger) Claim(start, end int) {
	if start < 0 {
		start = 0
	}
	for i := start; i <= end && i < len(l.claimed); i++ {
		l.claimed[i] = true
	}
}

// Claimed reports whether position i has been consumed.
func (l *Ledger) Claimed(i int) bool {
	return i >= 0 && i < len(l.claimed) && l.claimed[i]
}

// Free reports whether every position in start..end (inclusive) is in range
// and unclaimed.
func (l *Ledger) Free(start, end int) bool {
	if start < 0 || end >= len(l.claimed) || start > end {
		return false
	}
	for i := start; i <= end; i++ {
		if l.claimed[i] {
			return false
		}
	}
	return true
}

// Indices returns the claimed positions in ascending order.
func (l *Ledger) Indices() []int {
	var out []int
	for i, c := range l.claimed {
		if c {
			out = append(out, i)
		}
	}
	return out
}
