package model

import (
	"golang.org/x/text/cases"
)

// FoldSoilType returns the case-folded form of a soil type label, used as the
// comparison key everywhere soil types are matched. Whitespace is significant;
// callers trim user input.
func FoldSoilType(s string) string {
	// Casers are stateful, so each call gets its own.
	return cases.Fold().String(s)
}

// SameSoilType reports whether a and b name the same soil type, ignoring case.
func SameSoilType(a, b string) bool {
	return FoldSoilType(a) == FoldSoilType(b)
}
