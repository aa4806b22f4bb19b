// Package fuzzy provides approximate string matching for catalog
// deduplication: a seller typing "Tolkein" should resolve to an existing
// "Tolkien" author instead of creating a near-duplicate row.
package fuzzy

import "strings"

// Distance returns the Levenshtein edit distance between a and b.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Matches reports whether a and b are within maxDistance edits of each
// other, ignoring case and surrounding whitespace.
func Matches(a, b string, maxDistance int) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return true
	}
	// A distance bound smaller than the length difference can never match.
	// Lengths are counted in runes, same as Distance.
	if diff := len([]rune(a)) - len([]rune(b)); diff > maxDistance || -diff > maxDistance {
		return false
	}
	return Distance(a, b) <= maxDistance
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
