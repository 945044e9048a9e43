package compare

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// unitCosts scores insertions, deletions and substitutions equally, so
// the distance is the classic Levenshtein metric. The library default
// charges substitutions double, which would skew the ratio.
var unitCosts = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// TokenSortRatio computes an order-insensitive similarity between two
// free-text references, as an integer in [0,100]. Both inputs are
// normalized (lowercased, non-alphanumerics stripped, tokens sorted and
// rejoined with single spaces) before a Levenshtein comparison, so
// "ACME corp payout" and "payout ACME corp" score 100.
func TokenSortRatio(a, b string) int {
	na := normalizeTokens(a)
	nb := normalizeTokens(b)

	if na == nb {
		return 100
	}

	if na == "" || nb == "" {
		return 0
	}

	ra := []rune(na)
	rb := []rune(nb)

	distance := levenshtein.DistanceForStrings(ra, rb, unitCosts)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	return int(math.Round((1 - float64(distance)/float64(maxLen)) * 100))
}

// normalizeTokens lowercases, strips non-alphanumeric characters, splits
// on whitespace, sorts the tokens and rejoins them with single spaces.
func normalizeTokens(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}

	tokens := strings.Fields(sb.String())
	if len(tokens) == 0 {
		return ""
	}

	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
