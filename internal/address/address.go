// Package address decides whether two Philippine addresses name the same
// place.
package address

import (
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"idverify/internal/normalize"
)

// Locality and street markers. The token after a marker usually names the
// barangay, street or town.
var markers = []string{
	"BRGY", "BARANGAY",
	"BULAN", "SORSOGON",
	"ST", "STREET",
}

// stopWords never count as shared tokens. Besides function words this holds
// the generic locality words every address carries.
var stopWords = mapset.NewSet(
	"AND", "THE", "OF", "IN", "AT", "TO",
	"BRGY", "BARANGAY", "PUROK", "SITIO", "ZONE", "STREET",
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// minSharedTokens is how many significant tokens two addresses must share
// when no marker settles the question.
const minSharedTokens = 2

var separators = regexp.MustCompile(`[^A-Z0-9]+`)

func canonical(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(normalize.Fold(s))), " ")
}

func tokens(s string) []string {
	return strings.Fields(separators.ReplaceAllString(s, " "))
}

// Match reports whether a and b denote the same location. It is symmetric.
func Match(a, b string) bool {
	ca, cb := canonical(a), canonical(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}

	ta, tb := tokens(ca), tokens(cb)
	for _, m := range markers {
		wa, oka := after(ta, m)
		wb, okb := after(tb, m)
		if !oka || !okb {
			continue
		}
		if sameWord(wa, wb) {
			return true
		}
	}

	return SharedTokens(ta, tb) >= minSharedTokens
}

// sameWord compares the words following a marker. Numbers must be equal;
// "3" is not part of "13".
func sameWord(a, b string) bool {
	if a == b {
		return true
	}
	if digitsOnly.MatchString(a) || digitsOnly.MatchString(b) {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// after returns the token following the first occurrence of marker.
func after(toks []string, marker string) (string, bool) {
	for i, t := range toks {
		if t == marker && i+1 < len(toks) {
			return toks[i+1], true
		}
	}
	return "", false
}

// SharedTokens counts distinct tokens longer than two letters that appear
// in both lists, ignoring stop words.
func SharedTokens(a, b []string) int {
	sa, sb := significant(a), significant(b)
	return sa.Intersect(sb).Cardinality()
}

func significant(toks []string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, t := range toks {
		if len(t) > 2 && !stopWords.Contains(t) {
			set.Add(t)
		}
	}
	return set
}
