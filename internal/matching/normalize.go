// Package matching canonicalizes free-text product and test names and
// resolves them against candidate lists by edit-distance similarity.
package matching

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases name, replaces every character that is not a letter,
// digit or space with a space and collapses runs of whitespace. Diacritics
// are kept. Normalize is idempotent.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	composed := norm.NFC.String(name)
	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity scores two names in [0, 100] after normalization. Names that
// normalize to the empty string never match anything, including each other.
func Similarity(a, b string) int {
	return similarityNormalized(Normalize(a), Normalize(b))
}

func similarityNormalized(na, nb string) int {
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	longest := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	dist := levenshtein.ComputeDistance(na, nb)

	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}
