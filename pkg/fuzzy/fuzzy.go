// Package fuzzy matches spoken slide names against configured labels.
package fuzzy

import (
	"golang.org/x/text/cases"
)

// errorsPerRune is the tolerance ratio: one edit per five characters of the target.
const errorsPerRune = 5

// Distance returns the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j-1], curr[j-1], prev[j])
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Tolerance is the maximum distance accepted for a target label.
func Tolerance(target string) int {
	return len([]rune(target)) / errorsPerRune
}

// IsMatch reports whether input names target. Both sides are case folded;
// an exact match always wins, otherwise the distance must stay within
// Tolerance(target). Short labels such as "q1" accept no edits at all.
func IsMatch(target, input string) bool {
	target = fold(target)
	input = fold(input)

	if target == input {
		return true
	}

	return Distance(target, input) <= Tolerance(target)
}

func fold(s string) string {
	return cases.Fold().String(s)
}
