package taxonomy

import (
	"strings"
	"unicode"
)

// Allows reports whether a matched form is valid given the surrounding label
// text. Exclusion keywords veto the match outright. Inclusion keywords, when
// defined, must be present: a form with include rules and no include hit is
// treated as ambiguous and rejected. Forms with no rules always match.
func (f *Form) Allows(context string) bool {
	context = strings.ToLower(context)
	for _, word := range f.ContextExclude {
		if containsWord(context, strings.ToLower(word)) {
			return false
		}
	}
	for _, word := range f.ContextInclude {
		if containsWord(context, strings.ToLower(word)) {
			return true
		}
	}
	return len(f.ContextInclude) == 0
}

// HasContextRules reports whether the form carries any disambiguation rules.
func (f *Form) HasContextRules() bool {
	return len(f.ContextInclude) > 0 || len(f.ContextExclude) > 0
}

// containsWord reports whether word occurs in text on whole-word boundaries.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; ; {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		startOK := start == 0 || !isWordByte(text[start-1])
		endOK := end == len(text) || !isWordByte(text[end])
		if startOK && endOK {
			return true
		}
		offset = start + 1
	}
}

func isWordByte(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)) || b == '_'
}
