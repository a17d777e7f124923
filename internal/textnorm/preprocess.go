// Package textnorm canonicalizes ingredient label text and generates lookup
// variations. Every taxonomy index key and every matcher query passes through
// Preprocess first, so classification results are stable regardless of how a
// label spells or decorates an ingredient name.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	bracketedRe     = regexp.MustCompile(`\[[^\]]*\]`)
	multiSpaceRe    = regexp.MustCompile(`\s+`)
)

// asciiFold decomposes accented characters and strips combining marks so
// "açaí" and "acai" normalize to the same key.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// prefixes and suffixes that never change what an ingredient is. Each prefix
// is checked once, in order, so "dl-alpha tocopherol" sheds only "dl-".
var (
	stripPrefixes = []string{"dl-", "d-", "l-", "natural ", "synthetic ", "organic "}
	stripSuffixes = []string{" extract", " powder", " oil", " concentrate"}
)

const trimCutset = " \t\n\r!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Preprocess canonicalizes a raw ingredient name: lowercase, parenthetical and
// bracketed segments removed, trademark glyphs and diacritics stripped, edge
// punctuation trimmed, whitespace collapsed, and form prefixes/suffixes
// removed. Pure: the same input always yields the same output.
func Preprocess(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(strings.TrimSpace(text))
	text = parentheticalRe.ReplaceAllString(text, "")
	text = bracketedRe.ReplaceAllString(text, "")
	text = strings.Map(func(r rune) rune {
		switch r {
		case '™', '®', '©':
			return -1
		}
		return r
	}, text)
	if folded, _, err := transform.String(asciiFold, text); err == nil {
		text = folded
	}
	text = strings.Trim(text, trimCutset)
	text = multiSpaceRe.ReplaceAllString(text, " ")
	for _, prefix := range stripPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = text[len(prefix):]
		}
	}
	for _, suffix := range stripSuffixes {
		if strings.HasSuffix(text, suffix) {
			text = text[:len(text)-len(suffix)]
		}
	}
	return strings.TrimSpace(text)
}
