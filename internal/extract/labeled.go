package extract

import (
	"regexp"
	"strings"

	"idverify/internal/models"
)

// labelRule matches a field label at the start of an upper-cased line.
// The value is either the rest of the line or, when the label stands
// alone, the following line.
type labelRule struct {
	field models.Field
	re    *regexp.Regexp
	value func(string) (string, bool)
}

func newLabelRule(f models.Field, value func(string) (string, bool), labels ...string) labelRule {
	alts := strings.Join(labels, "|")
	// Bilingual cards print labels as "APELYIDO/LAST NAME".
	pattern := `^(?:` + alts + `)(?:\s*/\s*(?:` + alts + `))?(?:[\s:.#\-]+|$)(.*)$`
	return labelRule{field: f, re: regexp.MustCompile(pattern), value: value}
}

var (
	nameValue   = regexp.MustCompile(`^[A-Z][A-Z .,'-]+$`)
	middleValue = regexp.MustCompile(`^[A-Z][A-Z .,'-]*$`)
	idValue     = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{3,}$`)
	dateValue   = regexp.MustCompile(`^(\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}|[A-Z]{3,9}\.? \d{1,2},? \d{4}|\d{1,2} [A-Z]{3,9}\.? \d{4})`)
	hasDigit    = regexp.MustCompile(`\d`)
)

func asName(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if len(v) < 2 || !nameValue.MatchString(v) {
		return "", false
	}
	return v, true
}

func asMiddle(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || !middleValue.MatchString(v) {
		return "", false
	}
	return v, true
}

func asAddress(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if len(v) <= 5 {
		return "", false
	}
	return v, true
}

func asIDNumber(v string) (string, bool) {
	tok := strings.Fields(v)
	if len(tok) == 0 {
		return "", false
	}
	id := strings.Trim(tok[0], ".,;:")
	if !idValue.MatchString(id) || !hasDigit.MatchString(id) || looksLikeDate(id) {
		return "", false
	}
	return id, true
}

func asDate(v string) (string, bool) {
	m := dateValue.FindString(strings.TrimSpace(v))
	if m == "" {
		return "", false
	}
	return m, true
}

// Rules are ordered: component labels before the bare NAME label.
var labelRules = []labelRule{
	newLabelRule(models.FieldLastName, asName, "LAST NAME", "SURNAME", "FAMILY NAME", "APELYIDO"),
	newLabelRule(models.FieldFirstName, asName, "FIRST NAME", "GIVEN NAMES", "GIVEN NAME", "MGA PANGALAN"),
	newLabelRule(models.FieldMiddleName, asMiddle, "MIDDLE NAME", "MIDDLE INITIAL", `M\.I\.?`, "GITNANG APELYIDO"),
	newLabelRule(models.FieldFullName, asName, "FULL NAME", "STUDENT NAME", "PANGALAN", "NAME"),
	newLabelRule(models.FieldAddress, asAddress, "ADDRESS", "TIRAHAN", "DIRECCION", "RESIDENCE"),
	newLabelRule(models.FieldIDNumber, asIDNumber,
		"STUDENT NO", "STUDENT NUMBER", "STUDENT ID NO", "ID NO", "ID NUMBER", "ID",
		"LICENSE NO", "LICENSE NUMBER", "PASSPORT NO", "PASSPORT NUMBER",
		"CRN", "PSN", "PCN", "TIN", "SSS NO", "PHILHEALTH NO", "PIN", "CONTROL NO"),
	newLabelRule(models.FieldBirthDate, asDate,
		"DATE OF BIRTH", "BIRTH DATE", "BIRTHDATE", "BIRTHDAY", "PETSA NG KAPANGANAKAN", "KAPANGANAKAN", `D\.O\.B\.?`, "DOB"),
}

// A line opening with a locality marker is an address on its own.
var localityLine = regexp.MustCompile(`^(?:BRGY|BARANGAY|PUROK|SITIO)\b`)

// Labeled finds values printed after explicit field labels, in English
// or Filipino.
func Labeled(doc Document) models.FieldSet {
	out := models.FieldSet{}
	lines := doc.Text.UpperLines()
	for i, ln := range lines {
		for _, rule := range labelRules {
			if out.Has(rule.field) {
				continue
			}
			m := rule.re.FindStringSubmatch(ln)
			if m == nil {
				continue
			}
			rest := strings.TrimSpace(m[1])
			if rest == "" && i+1 < len(lines) && !isLabelLine(lines[i+1]) {
				rest = lines[i+1]
			}
			if v, ok := rule.value(rest); ok {
				out.Set(rule.field, v)
			}
			// One label per line.
			break
		}
	}
	if !out.Has(models.FieldAddress) {
		for _, ln := range lines {
			if localityLine.MatchString(ln) {
				if v, ok := asAddress(ln); ok {
					out.Set(models.FieldAddress, v)
					break
				}
			}
		}
	}
	return out
}

func isLabelLine(ln string) bool {
	for _, rule := range labelRules {
		if rule.re.MatchString(ln) {
			return true
		}
	}
	return false
}
