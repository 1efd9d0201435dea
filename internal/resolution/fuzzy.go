package resolution

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ratio turns a Levenshtein edit distance into a 0..1 similarity score,
// scaled by the longer of the two strings.
func ratio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 1 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// tokenSortRatio compares two strings after sorting each one's
// whitespace-separated tokens, so word order doesn't affect the score.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// partialRatio scores the best-matching substring of the longer string
// against the shorter one, so "Acme Corp" scores well against "Acme".
func partialRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	shorter, longer := a, b
	if len(a) > len(b) {
		shorter, longer = b, a
	}
	if shorter == "" {
		if longer == "" {
			return 1
		}
		return 0
	}
	best := 0.0
	window := len(shorter)
	for i := 0; i+window <= len(longer); i++ {
		if s := ratio(shorter, longer[i:i+window]); s > best {
			best = s
		}
	}
	if best == 0 && len(longer) < window {
		best = ratio(shorter, longer)
	}
	return best
}

// bestCompanyRatio is token-sort-ratio ∪ partial-ratio, whichever scores
// higher, per the resolver's fuzzy company-matching strategies.
func bestCompanyRatio(a, b string) float64 {
	ts := tokenSortRatio(a, b)
	pr := partialRatio(a, b)
	if pr > ts {
		return pr
	}
	return ts
}
