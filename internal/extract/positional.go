package extract

import (
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"idverify/internal/models"
)

// Tokens that rule a line out as a personal name: place names and the
// header words printed on Philippine IDs.
var notNameWords = mapset.NewSet(
	"SORSOGON", "GUBAT", "BULAN", "PROVINCE", "MUNICIPALITY", "BARANGAY", "BRGY", "CAMPUS", "CITY",
	"REPUBLIC", "REPUBLIKA", "PHILIPPINES", "PILIPINAS", "PHILIPPINE", "NG", "OF", "THE",
	"UNIVERSITY", "COLLEGE", "INSTITUTE", "ACADEMY", "SCHOOL", "STATE",
	"STUDENT", "LICENSE", "DRIVER", "DRIVERS", "PASSPORT", "IDENTIFICATION", "CARD", "ID",
	"NATIONAL", "OFFICE", "DEPARTMENT", "LAND", "TRANSPORTATION", "POSTAL", "SIGNATURE",
	"VALID", "UNTIL", "EXPIRATION", "DATE", "SEX", "NATIONALITY", "ADDRESS", "NAME",
)

// Tokens that mark a line as an address.
var addressWords = mapset.NewSet(
	"BRGY", "BARANGAY", "PUROK", "SITIO", "ZONE", "STREET", "ST", "AVE", "AVENUE", "ROAD", "RD",
	"SUBDIVISION", "SUBD", "VILLAGE", "CITY", "MUNICIPALITY", "PROVINCE",
	"BULAN", "SORSOGON", "GUBAT", "CAMPUS",
)

var schoolWords = []string{"UNIVERSITY", "COLLEGE", "INSTITUTE", "ACADEMY", "SCHOOL"}

var (
	nameToken  = regexp.MustCompile(`^[A-Z][A-Za-z.'-]*$`)
	commaName  = regexp.MustCompile(`^([A-Z][A-Za-z'-]+(?: [A-Z][A-Za-z'-]+)?),\s*([A-Z][A-Za-z.'-]*(?: [A-Z][A-Za-z.'-]*){0,3})$`)
	splitWords = regexp.MustCompile(`[^A-Z0-9]+`)
)

// Positional scans lines for name, address and school shapes when no
// label says what a line holds.
func Positional(doc Document) models.FieldSet {
	out := models.FieldSet{}
	lines := doc.Text.Lines

	if v, ok := scanNameLine(lines); ok {
		out.Set(models.FieldFullName, v)
	} else if last, first, middle, ok := scanCommaName(lines); ok {
		out.Set(models.FieldLastName, last)
		out.Set(models.FieldFirstName, first)
		out.Set(models.FieldMiddleName, middle)
	}
	if v, ok := scanAddressLine(lines); ok {
		out.Set(models.FieldAddress, v)
	}
	if v, ok := scanSchoolLine(lines); ok {
		out.Set(models.FieldSchool, v)
	}
	return out
}

func upperWords(s string) []string {
	return strings.Fields(splitWords.ReplaceAllString(strings.ToUpper(s), " "))
}

func anyIn(words []string, set mapset.Set[string]) bool {
	for _, w := range words {
		if set.Contains(w) {
			return true
		}
	}
	return false
}

// isNameLine reports whether ln has the shape of a personal name: two to
// four capitalized tokens, no digits or colons, no place or header words.
func isNameLine(ln string) bool {
	if strings.ContainsAny(ln, ":,/#0123456789") {
		return false
	}
	toks := strings.Fields(ln)
	if len(toks) < 2 || len(toks) > 4 {
		return false
	}
	for _, t := range toks {
		if !nameToken.MatchString(t) {
			return false
		}
	}
	return !anyIn(upperWords(ln), notNameWords)
}

func scanNameLine(lines []string) (string, bool) {
	for _, ln := range lines {
		if isNameLine(ln) {
			return ln, true
		}
	}
	return "", false
}

// scanCommaName reads the "CRUZ, JUAN S." layout.
func scanCommaName(lines []string) (last, first, middle string, ok bool) {
	for _, ln := range lines {
		m := commaName.FindStringSubmatch(ln)
		if m == nil || anyIn(upperWords(ln), notNameWords) {
			continue
		}
		rest := strings.Fields(m[2])
		if len(rest) == 0 {
			continue
		}
		return m[1], rest[0], strings.Join(rest[1:], " "), true
	}
	return "", "", "", false
}

func scanAddressLine(lines []string) (string, bool) {
	for _, ln := range lines {
		words := upperWords(ln)
		if len(ln) <= 5 || !anyIn(words, addressWords) {
			continue
		}
		if contains(words, "UNIVERSITY") {
			continue
		}
		return ln, true
	}
	return "", false
}

// scanSchoolLine picks the longest line naming an institution.
func scanSchoolLine(lines []string) (string, bool) {
	best := ""
	for _, ln := range lines {
		words := upperWords(ln)
		for _, w := range schoolWords {
			if contains(words, w) && len(ln) > len(best) {
				best = ln
			}
		}
	}
	return best, best != ""
}

func contains(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
