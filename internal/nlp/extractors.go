package nlp

import (
	"fmt"
	"strings"
)

// Document is the per-call state shared by the pipeline steps.
type Document struct {
	Tokens []Token
	Tags   []string // parallel to Tokens; meaningful only when Tagged
	Tagged bool
	Ledger *Ledger
}

// NewDocument builds a document with an empty ledger. tags is used only when
// tagged is true and it has one entry per token.
func NewDocument(raw []string, tags []string, tagged bool) *Document {
	doc := &Document{
		Tokens: newTokens(raw),
		Ledger: NewLedger(len(raw)),
	}
	if tagged && len(tags) == len(raw) {
		doc.Tags = tags
		doc.Tagged = true
	}
	return doc
}

// ExtractDuration finds "for N day(s)/week(s)" and, failing that, a bare
// "N day(s)/week(s)". The first match is claimed and returned as "<N> <unit>".
func ExtractDuration(doc *Document) string {
	toks := doc.Tokens

	for i := 0; i+2 < len(toks); i++ {
		if toks[i].Lower != "for" || !doc.Ledger.Free(i, i+2) {
			continue
		}
		count, ok := parseCount(toks[i+1].Lower)
		if !ok || !isDayOrWeek(toks[i+2].Lower) {
			continue
		}
		doc.Ledger.Claim(i, i+2)
		return fmt.Sprintf("%d %s", count, toks[i+2].Lower)
	}

	for i := 0; i+1 < len(toks); i++ {
		if !doc.Ledger.Free(i, i+1) {
			continue
		}
		count, ok := parseCount(toks[i].Lower)
		if !ok || !isDayOrWeek(toks[i+1].Lower) {
			continue
		}
		doc.Ledger.Claim(i, i+1)
		return fmt.Sprintf("%d %s", count, toks[i+1].Lower)
	}

	return ""
}

// ExtractDosage scans left to right for the first frequency idiom:
// once/twice/thrice [a|per day], N time(s)/x [a|per] day(s), or every N hour(s).
func ExtractDosage(doc *Document) string {
	toks := doc.Tokens
	n := len(toks)

	for i := 0; i < n; i++ {
		if doc.Ledger.Claimed(i) {
			continue
		}
		word := toks[i].Lower

		if isFrequencyWord(word) {
			end := i
			if i+2 < n && isRateWord(toks[i+1].Lower) && isDay(toks[i+2].Lower) && doc.Ledger.Free(i+1, i+2) {
				end = i + 2
			}
			doc.Ledger.Claim(i, end)
			return word + " a day"
		}

		if count, ok := parseCount(word); ok && i+1 < n && isTimesWord(toks[i+1].Lower) {
			idx := i + 2
			if idx < n && isRateWord(toks[idx].Lower) {
				idx++
			}
			if idx < n && isDay(toks[idx].Lower) && doc.Ledger.Free(i, idx) {
				doc.Ledger.Claim(i, idx)
				if count == 1 {
					return "once a day"
				}
				return fmt.Sprintf("%d times a day", count)
			}
		}

		if word == "every" && i+2 < n {
			count, ok := parseCount(toks[i+1].Lower)
			if ok && isHour(toks[i+2].Lower) && doc.Ledger.Free(i, i+2) {
				doc.Ledger.Claim(i, i+2)
				return fmt.Sprintf("every %d %s", count, toks[i+2].Lower)
			}
		}
	}

	return ""
}

// ExtractMedication joins the unclaimed tokens that can be part of a drug
// name, in original order and casing. With tags, only nouns and adjectives
// qualify unless that leaves nothing, in which case the tag filter is dropped.
//
// Spelled-out numbers that no extractor consumed are kept ("take two tablets
// once a day" yields "two").
func ExtractMedication(doc *Document) string {
	words := medicationCandidates(doc, doc.Tagged)
	if len(words) == 0 && doc.Tagged {
		words = medicationCandidates(doc, false)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

func medicationCandidates(doc *Document, useTags bool) []string {
	var words []string
	for i, tok := range doc.Tokens {
		if doc.Ledger.Claimed(i) {
			continue
		}
		if isStopWord(tok.Lower) || isPunctuation(tok.Text) || isDigits(tok.Lower) {
			continue
		}
		if useTags && !isNameTag(doc.Tags[i]) {
			continue
		}
		words = append(words, tok.Text)
	}
	return words
}
