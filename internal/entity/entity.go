// Package entity canonicalizes free-text entity names (companies,
// contributors, publishers) into stable grouping keys.
package entity

import (
	"strings"
	"unicode"
)

// corporateSuffixes are stripped from the end of a normalized name,
// repeatedly, so "Acme Co Inc" and "Acme" share a key.
var corporateSuffixes = []string{
	"inc", "llc", "ltd", "corp", "corporation", "co", "company",
	"gmbh", "plc", "limited",
}

// Normalize returns the canonical key for a raw entity name: lower-cased,
// punctuation stripped, whitespace runs collapsed, corporate suffixes
// removed. It is total (unparseable input degrades to a lower-cased
// trimmed string) and idempotent.
//
// Known limitation: no semantic alias resolution, so "Google" and
// "Alphabet" remain distinct keys.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			b.WriteByte(' ')
		}
		// Other punctuation ("Acme, Inc." periods and commas) is dropped.
	}

	words := strings.Fields(b.String())
	for len(words) > 1 && isCorporateSuffix(words[len(words)-1]) {
		words = words[:len(words)-1]
	}

	if len(words) == 0 {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(words, " ")
}

func isCorporateSuffix(word string) bool {
	for _, suffix := range corporateSuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}
