package extract

import (
	"regexp"
	"strings"

	"idverify/internal/doctype"
	"idverify/internal/models"
)

var (
	// Institutional IDs are commonly eight digits. This also hits compact
	// dates and phone fragments.
	eightDigits = regexp.MustCompile(`\b\d{8}\b`)
	bareDate    = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b`)
	dateShape   = regexp.MustCompile(`^(\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}[/-]\d{1,2}[/-]\d{1,2})$`)
	emergency   = regexp.MustCompile(`^[A-Z][A-Za-z.'-]*(?: [A-Z][A-Za-z.'-]*){1,3}$`)
)

func looksLikeDate(s string) bool {
	return dateShape.MatchString(s)
}

// Numeric finds ID numbers by layout and unlabeled dates.
func Numeric(doc Document) models.FieldSet {
	out := models.FieldSet{}
	if v, ok := scanIDNumber(doc.Text.Upper, doc.Hint); ok {
		out.Set(models.FieldIDNumber, v)
	}
	if m := bareDate.FindString(doc.Text.Upper); m != "" {
		out.Set(models.FieldBirthDate, m)
	}
	return out
}

// scanIDNumber tries the document layouts, those of hint first, then any
// eight-digit run.
func scanIDNumber(upper string, hint doctype.Type) (string, bool) {
	for _, re := range doctype.AllIDFormats(hint) {
		for _, m := range re.FindAllString(upper, -1) {
			if !looksLikeDate(m) {
				return m, true
			}
		}
	}
	if m := eightDigits.FindString(upper); m != "" {
		return m, true
	}
	return "", false
}

// Emergency accepts the first line with a plausible name shape, ignoring
// the place and header word lists.
func Emergency(doc Document) models.FieldSet {
	out := models.FieldSet{}
	for _, ln := range doc.Text.Lines {
		if len(ln) < 10 || len(ln) > 50 {
			continue
		}
		if emergency.MatchString(strings.TrimSpace(ln)) {
			out.Set(models.FieldFullName, ln)
			break
		}
	}
	return out
}
