// Package doctype catalogs the Philippine identity documents the system knows.
package doctype

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Type is a canonical document type name.
type Type string

const (
	Passport       Type = "Philippine Passport"
	UMID           Type = "UMID (Unified Multi-Purpose ID)"
	DriversLicense Type = "Drivers License (LTO)"
	PostalID       Type = "Postal ID"
	NationalID     Type = "National ID (PhilSys)"
	SSSID          Type = "SSS ID (Social Security System)"
	VotersID       Type = "Voters ID"
	PhilHealthID   Type = "PhilHealth ID"
	MunicipalID    Type = "Municipal ID"
	BarangayID     Type = "Barangay ID"
	StudentID      Type = "Student ID"
	TINID          Type = "TIN ID (Tax Identification Number)"
	Unknown        Type = "Unknown"
)

// resolveThreshold is the Jaro-Winkler similarity needed to accept a fuzzy name.
const resolveThreshold = 0.85

type entry struct {
	typ     Type
	aliases []string
	markers []string
	// idFormats match document-specific ID number layouts.
	idFormats []*regexp.Regexp
}

// catalog is ordered; detection ties go to the earlier entry.
var catalog = []entry{
	{
		typ:       NationalID,
		aliases:   []string{"national id", "philsys", "philid", "phil id", "psn"},
		markers:   []string{"PHILSYS", "NATIONAL ID", "PAMBANSANG PAGKAKAKILANLAN", "PHILIPPINE IDENTIFICATION", "PSN"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b\d{4}-\d{4}-\d{4}-\d{4}\b`), regexp.MustCompile(`\b[A-Z]{1,2}\d{2}-\d{2}-\d{6}\b`)},
	},
	{
		typ:       DriversLicense,
		aliases:   []string{"drivers license", "driver's license", "driver license", "lto"},
		markers:   []string{"DRIVER", "LICENSE", "LAND TRANSPORTATION", "LTO"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b[A-Z]\d{2}-\d{2}-\d{6}\b`), regexp.MustCompile(`\b[A-Z]{2}\d{7}\b`)},
	},
	{
		typ:       Passport,
		aliases:   []string{"passport", "philippine passport", "dfa"},
		markers:   []string{"PASSPORT", "PASAPORTE", "DEPARTMENT OF FOREIGN AFFAIRS"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b[A-Z]\d{7}[A-Z]?\b`)},
	},
	{
		typ:       UMID,
		aliases:   []string{"umid", "unified multi-purpose id", "unified multipurpose id"},
		markers:   []string{"UMID", "UNIFIED MULTI-PURPOSE", "CRN"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b\d{4}-\d{7}-\d\b`), regexp.MustCompile(`\b\d{4}-\d{4}-\d{4}\b`)},
	},
	{
		typ:       SSSID,
		aliases:   []string{"sss", "sss id", "social security system"},
		markers:   []string{"SOCIAL SECURITY", "SSS"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b\d{2}-\d{7}-\d\b`)},
	},
	{
		typ:       PhilHealthID,
		aliases:   []string{"philhealth", "philhealth id"},
		markers:   []string{"PHILHEALTH", "PHILIPPINE HEALTH INSURANCE"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b\d{2}-\d{9}-\d\b`)},
	},
	{
		typ:       PostalID,
		aliases:   []string{"postal id", "postal", "philpost"},
		markers:   []string{"POSTAL ID", "PHLPOST", "PHILPOST", "POSTAL IDENTITY"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b[A-Z]{4}\d{8}\b`)},
	},
	{
		typ:       TINID,
		aliases:   []string{"tin", "tin id", "tax identification number", "bir"},
		markers:   []string{"TAX IDENTIFICATION", "BUREAU OF INTERNAL REVENUE", "TIN"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b\d{3}-\d{3}-\d{3}(?:-\d{3,5})?\b`)},
	},
	{
		typ:     VotersID,
		aliases: []string{"voters id", "voter's id", "voter id", "comelec"},
		markers: []string{"VOTER", "COMELEC", "COMMISSION ON ELECTIONS"},
		idFormats: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{4}-\d{4}[A-Z]-[A-Z]\d{7}[A-Z]{3}\d{5}\b`),
		},
	},
	{
		typ:     BarangayID,
		aliases: []string{"barangay id", "brgy id", "barangay"},
		markers: []string{"BARANGAY ID", "BRGY ID", "PUNONG BARANGAY"},
	},
	{
		typ:     MunicipalID,
		aliases: []string{"municipal id", "municipality id", "city id"},
		markers: []string{"MUNICIPAL ID", "MUNICIPALITY OF", "BAYAN NG"},
	},
	{
		typ:       StudentID,
		aliases:   []string{"student id", "school id", "student"},
		markers:   []string{"STUDENT", "UNIVERSITY", "COLLEGE", "STUDENT NO"},
		idFormats: []*regexp.Regexp{regexp.MustCompile(`\b\d{4}-\d{4,5}\b`)},
	},
}

// All returns the known document types in catalog order.
func All() []Type {
	out := make([]Type, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e.typ)
	}
	return out
}

func lookup(t Type) (entry, bool) {
	for _, e := range catalog {
		if e.typ == t {
			return e, true
		}
	}
	return entry{}, false
}

// IDFormats returns the ID number layouts for t, or nil when none are known.
func IDFormats(t Type) []*regexp.Regexp {
	e, ok := lookup(t)
	if !ok {
		return nil
	}
	return e.idFormats
}

// AllIDFormats returns every known ID layout, with the formats of hint first.
func AllIDFormats(hint Type) []*regexp.Regexp {
	out := append([]*regexp.Regexp(nil), IDFormats(hint)...)
	for _, e := range catalog {
		if e.typ == hint {
			continue
		}
		out = append(out, e.idFormats...)
	}
	return out
}

// DetectFromText picks the type whose markers occur most often in text.
// Single-word markers must match a whole word.
func DetectFromText(text string) Type {
	upper := " " + wordsOnly(strings.ToUpper(text)) + " "
	best, bestScore := Unknown, 0
	for _, e := range catalog {
		score := 0
		for _, m := range e.markers {
			if strings.Contains(upper, " "+m+" ") {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = e.typ, score
		}
	}
	return best
}

var nonWord = regexp.MustCompile(`[^A-Z0-9-]+`)

func wordsOnly(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(s, " "))
}

// Resolve maps a free-text type name to a catalog type. It tries the
// canonical names, then aliases, then a Jaro-Winkler match.
func Resolve(name string) Type {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Unknown
	}
	for _, e := range catalog {
		if strings.ToLower(string(e.typ)) == n {
			return e.typ
		}
	}
	for _, e := range catalog {
		for _, a := range e.aliases {
			if a == n {
				return e.typ
			}
		}
	}

	metric := metrics.NewJaroWinkler()
	best, bestScore := Unknown, 0.0
	for _, e := range catalog {
		candidates := append([]string{strings.ToLower(string(e.typ))}, e.aliases...)
		for _, c := range candidates {
			if s := strutil.Similarity(n, c, metric); s > bestScore {
				best, bestScore = e.typ, s
			}
		}
	}
	if bestScore >= resolveThreshold {
		return best
	}
	return Unknown
}

// TypesMatch reports whether the user-selected and detected type names
// denote the same document: either name contains the other, ignoring
// case, or both resolve to the same known type.
func TypesMatch(selected, detected string) bool {
	s := strings.ToLower(strings.TrimSpace(selected))
	d := strings.ToLower(strings.TrimSpace(detected))
	if s == "" || d == "" {
		return false
	}
	if strings.Contains(s, d) || strings.Contains(d, s) {
		return true
	}
	rs, rd := Resolve(selected), Resolve(detected)
	return rs != Unknown && rs == rd
}
