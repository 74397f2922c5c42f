package index

import (
	"strings"

	"golang.org/x/text/cases"
)

// foldCaser performs Unicode simple case-folding, the "lowercase" step of
// the normalization rule. Using x/text here (rather than strings.ToLower)
// gets us the Unicode-aware fold the spec asks for; over the ASCII range the
// rest of normalize() narrows everything down to, it behaves identically to
// strings.ToLower.
var foldCaser = cases.Fold()

// Normalize canonicalizes s per the index's normalization rule:
//  1. Unicode case-fold (lowercase)
//  2. delete apostrophes (elided, not replaced with space)
//  3. replace every character outside [0-9a-zA-Z] with a single space
//  4. collapse whitespace runs to a single space
//  5. trim leading/trailing space
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = foldCaser.String(s)

	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if r == '\'' {
			// Apostrophes are elided entirely, not turned into spaces.
			continue
		}
		if isAllowedRune(r) {
			b.WriteRune(r)
			lastWasSpace = false
			continue
		}
		if !lastWasSpace {
			b.WriteByte(' ')
			lastWasSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

func isAllowedRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	default:
		return false
	}
}
