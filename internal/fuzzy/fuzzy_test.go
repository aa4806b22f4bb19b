package fuzzy

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"Tolkein", "Tolkien", 2},
		{"gol", "golang", 3},
		{"café", "cafe", 1},
	}

	for _, tc := range cases {
		if got := Distance(tc.a, tc.b); got != tc.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		a, b        string
		maxDistance int
		want        bool
	}{
		{"Tolkien", "Tolkein", 2, true},
		{"Tolkien", "tolkien", 0, true},
		{"  Tolkien ", "tolkien", 0, true},
		{"Fantasy", "Fantazy", 1, true},
		{"Fantasy", "Romance", 2, false},
		{"Science Fiction", "Sciencs Fiction", 2, true},
		{"ab", "abcdef", 2, false},
		{"", "", 0, true},
		// Multibyte names: the length shortcut must count runes, not bytes
		{"café", "cafe", 1, true},
		{"日本", "本", 2, true},
		{"日本語", "日本", 1, true},
		{"Толкин", "Толкиен", 1, true},
	}

	for _, tc := range cases {
		if got := Matches(tc.a, tc.b, tc.maxDistance); got != tc.want {
			t.Errorf("Matches(%q, %q, %d) = %v, want %v", tc.a, tc.b, tc.maxDistance, got, tc.want)
		}
	}
}

func TestProperty_DistanceMetric(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("distance is symmetric", prop.ForAll(
		func(a, b string) bool {
			return Distance(a, b) == Distance(b, a)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("distance is zero only for equal strings", prop.ForAll(
		func(a, b string) bool {
			if a == b {
				return Distance(a, b) == 0
			}
			return Distance(a, b) > 0
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("a single appended rune costs one edit", prop.ForAll(
		func(a string) bool {
			return Distance(a, a+"x") == 1
		},
		gen.AlphaString(),
	))

	properties.Property("matches agrees with the distance it bounds", prop.ForAll(
		func(a, b string, maxDistance int) bool {
			na := strings.ToLower(strings.TrimSpace(a))
			nb := strings.ToLower(strings.TrimSpace(b))
			return Matches(a, b, maxDistance) == (Distance(na, nb) <= maxDistance)
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
