package nlp

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// wordNumbers maps spelled-out counts to their value.
var wordNumbers = map[string]int{
	"one":    1,
	"two":    2,
	"three":  3,
	"four":   4,
	"five":   5,
	"six":    6,
	"seven":  7,
	"eight":  8,
	"nine":   9,
	"ten":    10,
	"eleven": 11,
	"twelve": 12,
}

// stopWords are dosage, frequency and connective words that never belong to a
// medication name. "week" and "weeks" are not listed: an unclaimed week stays
// in the medication text ("follow up next week").
var stopWords = map[string]struct{}{
	"take": {}, "tablet": {}, "tablets": {}, "capsule": {}, "capsules": {}, "syrup": {},
	"for": {}, "a": {}, "per": {}, "day": {}, "days": {},
	"time": {}, "times": {}, "x": {}, "every": {}, "hour": {}, "hours": {},
	"once": {}, "twice": {}, "thrice": {}, "daily": {}, "dose": {}, "dosage": {},
	"and": {}, "then": {},
}

// parseCount reads a lowercase token as a count, either a word-number or an
// integer literal that fits in 32 bits.
func parseCount(lower string) (int, bool) {
	if lower == "" {
		return 0, false
	}
	if n, ok := wordNumbers[lower]; ok {
		return n, true
	}
	n, err := strconv.ParseInt(lower, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func isStopWord(lower string) bool {
	_, ok := stopWords[lower]
	return ok
}

// isDigits reports whether s is non-empty and made only of decimal digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isPunctuation reports whether s is a single rune that is neither a letter nor a digit.
func isPunctuation(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isDayOrWeek(lower string) bool {
	switch lower {
	case "day", "days", "week", "weeks":
		return true
	}
	return false
}

func isDay(lower string) bool {
	return lower == "day" || lower == "days"
}

func isHour(lower string) bool {
	return lower == "hour" || lower == "hours"
}

func isTimesWord(lower string) bool {
	switch lower {
	case "time", "times", "x":
		return true
	}
	return false
}

func isRateWord(lower string) bool {
	return lower == "a" || lower == "per"
}

func isFrequencyWord(lower string) bool {
	switch lower {
	case "once", "twice", "thrice":
		return true
	}
	return false
}
