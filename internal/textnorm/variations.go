package textnorm

import (
	"regexp"
	"strings"
)

// synonym holds one bidirectional abbreviation pair. When the long form
// appears in a name we also try the short form, and vice versa.
type synonym struct {
	full   string
	abbrev string
}

// Pair order matters: variations are emitted in this order, so the generated
// slice is deterministic across runs.
var synonyms = []synonym{
	{"vitamin", "vit"},
	{"alpha", "a"},
	{"beta", "b"},
	{"gamma", "g"},
	{"delta", "d"},
	{"tocopherol", "toco"},
	{"tocopheryl", "toco"},
	{"ascorbic acid", "ascorbate"},
	{"cholecalciferol", "cholecal"},
	{"cyanocobalamin", "cyano"},
	{"methylcobalamin", "methyl"},
	{"pyridoxine", "pyr"},
	{"riboflavin", "ribo"},
	{"thiamine", "thia"},
	{"phylloquinone", "phyllo"},
}

var (
	letterDigitRe      = regexp.MustCompile(`([a-z])(\d+)`)
	letterSpaceDigitRe = regexp.MustCompile(`([a-z])\s(\d+)`)
	hasLetterDigitRe   = regexp.MustCompile(`[a-z]\d+`)
	hasLetterSpDigitRe = regexp.MustCompile(`[a-z]\s\d+`)
)

// GenerateVariations returns the deduplicated set of textual variations used
// for exact-index registration and lookup. The input is always the first
// element, so the result is never empty. Variations cover: spaces removed,
// spaces hyphenated, bidirectional synonym substitution, and numeral spacing
// in both directions ("d3" <-> "d 3"). Order is deterministic.
func GenerateVariations(text string) []string {
	variations := []string{text}

	if noSpace := strings.ReplaceAll(text, " ", ""); noSpace != text {
		variations = append(variations, noSpace)
	}
	if hyphenated := strings.ReplaceAll(text, " ", "-"); hyphenated != text {
		variations = append(variations, hyphenated)
	}

	for _, s := range synonyms {
		if strings.Contains(text, s.full) {
			variations = append(variations, strings.ReplaceAll(text, s.full, s.abbrev))
		}
		if strings.Contains(text, s.abbrev) {
			variations = append(variations, strings.ReplaceAll(text, s.abbrev, s.full))
		}
	}

	if hasLetterDigitRe.MatchString(text) {
		variations = append(variations, letterDigitRe.ReplaceAllString(text, "$1 $2"))
	}
	if hasLetterSpDigitRe.MatchString(text) {
		variations = append(variations, letterSpaceDigitRe.ReplaceAllString(text, "$1$2"))
	}

	return dedupe(variations)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
