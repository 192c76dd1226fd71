package calc

import "strings"

// debianAffixes are the common Debian naming conventions adjusted for
// when comparing a candidate Debian source/binary name against an alien
// package's names, per spec.md §4.4.
var debianAffixes = []string{"lib", "-dev", "-dbg", "-doc", "-common", "-data", "-bin"}

// aliasTable is a small, closed set of well-known Debian <-> upstream
// name aliases. Real deployments would load this from a data file; the
// core ships the ones exercised by the worked examples in spec.md §8.
var aliasTable = map[string]string{
	"zlib1g": "zlib",
}

// normalizeName lower-cases and strips Debian naming conventions so that
// e.g. "libzlib1-dev" and "zlib" compare as closely related.
func normalizeName(n string) string {
	n = strings.ToLower(n)
	if canon, ok := aliasTable[n]; ok {
		n = canon
	}
	for _, affix := range debianAffixes {
		if strings.HasPrefix(affix, "-") {
			n = strings.TrimSuffix(n, affix)
		} else {
			n = strings.TrimPrefix(n, affix)
		}
	}
	// Strip a trailing SONAME-style digit run, e.g. "zlib1" -> "zlib".
	n = strings.TrimRight(n, "0123456789")
	return n
}

// tokenize splits a normalized name on common separators for the
// token-based similarity comparison.
func tokenize(n string) []string {
	return strings.FieldsFunc(n, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
}

// FuzzyPackageScore returns a symmetric similarity score in [0,100]
// between two package names, adjusted for Debian suffix conventions and
// the alias table, per spec.md §4.4.
func FuzzyPackageScore(a, b string) int {
	na, nb := normalizeName(a), normalizeName(b)
	if na == nb {
		return 100
	}
	ta, tb := tokenize(na), tokenize(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return levenshteinScore(na, nb)
	}
	setA, setB := toSet(ta), toSet(tb)
	common := 0
	for t := range setA {
		if setB[t] {
			common++
		}
	}
	union := len(setA) + len(setB) - common
	if union == 0 {
		return 100
	}
	jaccard := float64(common) / float64(union)
	// Blend the token-level Jaccard similarity with character-level
	// Levenshtein similarity on the normalized strings so that close
	// single-token names (e.g. "zlib" vs "zlib-ng") still score
	// reasonably rather than collapsing to 0 for lack of a shared token.
	lev := float64(levenshteinScore(na, nb))
	score := int((jaccard*60 + lev*0.4))
	if score > 100 {
		score = 100
	}
	return score
}

func toSet(ts []string) map[string]bool {
	m := make(map[string]bool, len(ts))
	for _, t := range ts {
		m[t] = true
	}
	return m
}

// levenshteinScore returns 100*(1 - distance/maxlen) as an int, a
// symmetric similarity derived from edit distance.
func levenshteinScore(a, b string) int {
	d := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	score := 100 * (1 - float64(d)/float64(maxLen))
	if score < 0 {
		score = 0
	}
	return int(score)
}

// levenshtein computes the classic edit distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// BestNamedCandidate selects the best-scoring candidate name among
// candidates against the alien's primary and alternative names, applying
// the tie-break rule from spec.md §4.4: shorter name first, then
// lexicographic.
func BestNamedCandidate(names []string, candidates []string) (best string, score int) {
	bestScore := -1
	for _, cand := range candidates {
		s := 0
		for _, n := range names {
			if sc := FuzzyPackageScore(n, cand); sc > s {
				s = sc
			}
		}
		switch {
		case s > bestScore:
			bestScore, best = s, cand
		case s == bestScore && better(cand, best):
			best = cand
		}
	}
	return best, bestScore
}

// better implements the tie-break: shorter name wins, then lexicographic.
func better(cand, cur string) bool {
	if cur == "" {
		return true
	}
	if len(cand) != len(cur) {
		return len(cand) < len(cur)
	}
	return cand < cur
}
