// Package similarity scores OCR-read names against user-entered names.
package similarity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	mapset "github.com/deckarep/golang-set/v2"

	"idverify/internal/models"
	"idverify/internal/normalize"
)

// Blend weights of the composite score.
const (
	weightSequence = 0.4
	weightTokens   = 0.4
	weightBigrams  = 0.2
)

// Confidence assigned by each rule.
const (
	confExact      = 100
	confNoMiddle   = 95
	confVariation  = 90
	confSubset     = 85
	confOCRDigits  = 85
	subsetMinScore = 70
)

var (
	nonAlpha = regexp.MustCompile(`[^A-Z ]+`)
	nonAlnum = regexp.MustCompile(`[^A-Z0-9 ]+`)
)

// nicknames maps formal given names to their common short forms.
var nicknames = map[string][]string{
	"JOSEPH":      {"JOE", "JOJO"},
	"ROBERT":      {"BOB", "BERT"},
	"ROBERTO":     {"BERT"},
	"WILLIAM":     {"BILL"},
	"RICHARD":     {"DICK"},
	"EDWARD":      {"ED"},
	"MICHAEL":     {"MIKE"},
	"CHRISTOPHER": {"CHRIS"},
	"CHRISTINE":   {"CHRIS"},
	"DANIEL":      {"DAN"},
	"ANTHONY":     {"TONY"},
	"ANTONIO":     {"TONY"},
	"PATRICIA":    {"PAT"},
	"ELIZABETH":   {"LIZ", "BETH"},
	"KATHERINE":   {"KATE"},
	"MARGARET":    {"MEG"},
	"JOSE":        {"PEPE"},
	"FRANCISCO":   {"KIKO", "PACO"},
}

// ocrDigits lists letters OCR commonly reads for the digits they resemble.
var ocrDigits = strings.NewReplacer(
	"O", "0",
	"I", "1",
	"Z", "2",
	"S", "5",
	"B", "8",
	"G", "6",
	"L", "1",
)

// NormalizeName upper-cases s, folds accents and keeps only letters and
// single spaces.
func NormalizeName(s string) string {
	s = strings.ToUpper(normalize.Fold(s))
	return strings.Join(strings.Fields(nonAlpha.ReplaceAllString(s, " ")), " ")
}

func normalizeAlnum(s string) string {
	s = strings.ToUpper(normalize.Fold(s))
	return strings.Join(strings.Fields(nonAlnum.ReplaceAllString(s, " ")), " ")
}

// CorrectOCRDigits replaces letters that OCR confuses with digits.
func CorrectOCRDigits(s string) string {
	return ocrDigits.Replace(strings.ToUpper(s))
}

// Composite blends edit-distance similarity, word-set overlap and
// character-bigram overlap into a score in [0,100]. Inputs should be
// normalized with NormalizeName.
func Composite(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	seq := strutil.Similarity(a, b, metrics.NewLevenshtein()) * 100
	tokens := jaccard(wordSet(a), wordSet(b)) * 100
	bigrams := 0.0
	ca, cb := strings.ReplaceAll(a, " ", ""), strings.ReplaceAll(b, " ", "")
	if len(ca) >= 2 && len(cb) >= 2 {
		bigrams = jaccard(bigramSet(ca), bigramSet(cb)) * 100
	}
	score := seq*weightSequence + tokens*weightTokens + bigrams*weightBigrams
	return clamp(score)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func wordSet(s string) mapset.Set[string] {
	return mapset.NewThreadUnsafeSet(strings.Fields(s)...)
}

func bigramSet(s string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for i := 0; i+2 <= len(s); i++ {
		set.Add(s[i : i+2])
	}
	return set
}

func jaccard(a, b mapset.Set[string]) float64 {
	union := a.Union(b).Cardinality()
	if union == 0 {
		return 0
	}
	return float64(a.Intersect(b).Cardinality()) / float64(union)
}

// CompareNames decides whether the name read from the ID and the name the
// user entered belong to the same person. Rules run from most to least
// specific; the first that fires decides.
func CompareNames(ocrName, userName string) models.MatchResult {
	ocr, user := NormalizeName(ocrName), NormalizeName(userName)

	if ocr != "" && ocr == user {
		return matched(confExact, 100, "Exact match")
	}

	score := Composite(ocr, user)

	if ocr != "" && user != "" {
		if dropMiddleInitials(ocr) == dropMiddleInitials(user) {
			return matched(confNoMiddle, score, "Match without middle initial")
		}
		if variantTokens(strings.Fields(ocr), strings.Fields(user)) {
			return matched(confVariation, score, "Match with nickname/initial variations")
		}
		if coveredBy(strings.Fields(user), strings.Fields(ocr)) && score > subsetMinScore {
			return matched(confSubset, score, "All name components match")
		}
	}

	rawOCR, rawUser := normalizeAlnum(ocrName), normalizeAlnum(userName)
	// Only the OCR side is substituted; the user's entry is taken as typed.
	if rawOCR != "" && CorrectOCRDigits(rawOCR) == rawUser {
		r := matched(confOCRDigits, score, "Match after OCR error correction")
		r.Suggestion = fmt.Sprintf("OCR may have misread: %s -> %s", rawOCR, rawUser)
		return r
	}

	return models.MatchResult{
		Matched:    false,
		Confidence: 0,
		Similarity: &score,
		Note:       fmt.Sprintf("Names differ significantly (%.1f%% similarity)", score),
		Suggestion: "Please verify the name on your ID",
	}
}

func matched(conf int, score float64, note string) models.MatchResult {
	return models.MatchResult{Matched: true, Confidence: conf, Similarity: &score, Note: note}
}

// dropMiddleInitials removes single-letter tokens between the first and
// last token.
func dropMiddleInitials(name string) string {
	toks := strings.Fields(name)
	if len(toks) < 3 {
		return name
	}
	out := []string{toks[0]}
	for _, t := range toks[1 : len(toks)-1] {
		if len(t) > 1 {
			out = append(out, t)
		}
	}
	out = append(out, toks[len(toks)-1])
	return strings.Join(out, " ")
}

// variantTokens reports whether two equally long token lists agree pairwise
// up to nicknames and initials.
func variantTokens(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if !sameToken(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameToken(a, b string) bool {
	switch {
	case a == b:
		return true
	case isNickname(a, b) || isNickname(b, a):
		return true
	case len(a) == 1 && strings.HasPrefix(b, a):
		return true
	case len(b) == 1 && strings.HasPrefix(a, b):
		return true
	}
	return false
}

func isNickname(formal, nick string) bool {
	for _, n := range nicknames[formal] {
		if n == nick {
			return true
		}
	}
	return false
}

// coveredBy reports whether each token of part contains, or is contained
// in, some token of whole.
func coveredBy(part, whole []string) bool {
	if len(part) == 0 {
		return false
	}
	for _, p := range part {
		found := false
		for _, w := range whole {
			if strings.Contains(w, p) || strings.Contains(p, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
