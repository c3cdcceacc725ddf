// Package fuzzy scores string similarity on a 0-100 scale using the
// indel (insert/delete) distance.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// Scorer compares two strings and returns a similarity between 0 and 100.
type Scorer func(a, b string) float64

// Process lower-cases s, replaces every non letter/digit with a space and
// trims the result.
func Process(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(' ')
	}
	return strings.TrimSpace(b.String())
}

// Ratio is the normalized indel similarity of a and b.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcs(a, b)) / float64(total)
}

func lcs(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// PartialRatio returns the best Ratio between the shorter string and any
// equally long window of the longer one.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		if len(ra) == 0 && len(rb) == 0 {
			return 100
		}
		return 0
	}

	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	best := partialWindows(ra, rb)
	if len(ra) == len(rb) {
		if alt := partialWindows(rb, ra); alt > best {
			best = alt
		}
	}
	return best
}

func partialWindows(short, long []rune) float64 {
	m, n := len(short), len(long)
	best := 0.0
	consider := func(window []rune) bool {
		score := ratioRunes(short, window)
		if score > best {
			best = score
		}
		return best == 100
	}

	for k := 1; k < m; k++ {
		if consider(long[:k]) {
			return best
		}
	}
	for i := 0; i+m <= n; i++ {
		if consider(long[i : i+m]) {
			return best
		}
	}
	for k := m - 1; k >= 1; k-- {
		if consider(long[n-k:]) {
			return best
		}
	}
	return best
}

func tokens(s string) []string {
	return strings.Fields(s)
}

func sortedJoin(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

type tokenSets struct {
	sect   []string
	diffAB []string
	diffBA []string
}

func splitTokenSets(a, b string) tokenSets {
	setA := uniq(tokens(a))
	setB := uniq(tokens(b))

	inB := make(map[string]struct{}, len(setB))
	for _, t := range setB {
		inB[t] = struct{}{}
	}
	inA := make(map[string]struct{}, len(setA))
	for _, t := range setA {
		inA[t] = struct{}{}
	}

	var ts tokenSets
	for _, t := range setA {
		if _, ok := inB[t]; ok {
			ts.sect = append(ts.sect, t)
		} else {
			ts.diffAB = append(ts.diffAB, t)
		}
	}
	for _, t := range setB {
		if _, ok := inA[t]; !ok {
			ts.diffBA = append(ts.diffBA, t)
		}
	}
	return ts
}

func uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// TokenSortRatio compares both strings after sorting their whitespace tokens.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedJoin(tokens(a)), sortedJoin(tokens(b)))
}

// TokenSetRatio compares the shared tokens against each side's remainder.
// One token set fully contained in the other scores 100.
func TokenSetRatio(a, b string) float64 {
	if len(tokens(a)) == 0 || len(tokens(b)) == 0 {
		return 0
	}

	ts := splitTokenSets(a, b)
	if len(ts.sect) > 0 && (len(ts.diffAB) == 0 || len(ts.diffBA) == 0) {
		return 100
	}

	sect := sortedJoin(ts.sect)
	diffAB := sortedJoin(ts.diffAB)
	diffBA := sortedJoin(ts.diffBA)

	best := Ratio(diffAB, diffBA)
	if sect == "" {
		return best
	}

	combinedAB := sect + " " + diffAB
	combinedBA := sect + " " + diffBA
	for _, score := range []float64{
		Ratio(sect, combinedAB),
		Ratio(sect, combinedBA),
		Ratio(combinedAB, combinedBA),
	} {
		if score > best {
			best = score
		}
	}
	return best
}

// TokenRatio is the better of TokenSortRatio and TokenSetRatio.
func TokenRatio(a, b string) float64 {
	return max(TokenSortRatio(a, b), TokenSetRatio(a, b))
}

// PartialTokenRatio applies PartialRatio to sorted token sets.
func PartialTokenRatio(a, b string) float64 {
	if len(tokens(a)) == 0 || len(tokens(b)) == 0 {
		return 0
	}

	ts := splitTokenSets(a, b)
	if len(ts.sect) > 0 && (len(ts.diffAB) == 0 || len(ts.diffBA) == 0) {
		return 100
	}

	best := PartialRatio(sortedJoin(uniq(tokens(a))), sortedJoin(uniq(tokens(b))))
	if len(ts.sect) == 0 {
		return best
	}
	return max(best, PartialRatio(sortedJoin(ts.diffAB), sortedJoin(ts.diffBA)))
}

const unbaseScale = 0.95

// WRatio weighs the plain, partial and token scorers by the length ratio of
// the inputs. Empty input scores 0.
func WRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}

	lenRatio := float64(max(la, lb)) / float64(min(la, lb))
	best := Ratio(a, b)

	if lenRatio < 1.5 {
		return max(best, TokenRatio(a, b)*unbaseScale)
	}

	partialScale := 0.9
	if lenRatio > 8 {
		partialScale = 0.6
	}

	best = max(best, PartialRatio(a, b)*partialScale)
	return max(best, PartialTokenRatio(a, b)*unbaseScale*partialScale)
}

// Match is the best choice found by ExtractOne.
type Match struct {
	Choice string
	Score  float64
	Index  int
}

// ExtractOne returns the highest scoring choice at or above cutoff. Ties go
// to the earlier choice.
func ExtractOne(query string, choices []string, scorer Scorer, cutoff float64) (Match, bool) {
	best := Match{Index: -1, Score: -1}
	for i, c := range choices {
		score := scorer(query, c)
		if score < cutoff {
			continue
		}
		if score > best.Score {
			best = Match{Choice: c, Score: score, Index: i}
		}
	}
	return best, best.Index >= 0
}
