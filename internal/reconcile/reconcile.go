// Package reconcile compares OCR fields with user-entered fields and
// grades the result.
package reconcile

import (
	"fmt"
	"strings"

	"idverify/internal/address"
	"idverify/internal/models"
	"idverify/internal/similarity"
)

const (
	warnNoOCR      = "OCR could not extract readable information from the ID"
	warnNoOverlap  = "None of the fields you entered could be read from the ID"
	idMismatchWarn = "ID Number mismatch"
)

// Compare checks fullName, address and idNumber wherever both sets carry
// a value. docType only words the suggestions; empty means a generic ID.
func Compare(ocr, user models.FieldSet, docType string) models.ComparisonReport {
	rep := models.ComparisonReport{
		Matches:     []models.FieldComparison{},
		Mismatches:  []models.FieldComparison{},
		Warnings:    []string{},
		Suggestions: []models.Suggestion{},
	}

	if ocr.Empty() {
		rep.Warnings = append(rep.Warnings, warnNoOCR)
		rep.VerificationLevel = models.LevelFailed
		return rep
	}

	for _, f := range models.ComparedFields {
		ov, okO := ocr.Get(f)
		uv, okU := user.Get(f)
		if !okO || !okU {
			continue
		}
		rep.TotalFieldsChecked++

		res, warning := compareField(f, ov, uv)
		cmp := models.FieldComparison{Field: f, OCR: ov, User: uv, Result: res}
		if res.Matched {
			rep.MatchedFields++
			rep.Matches = append(rep.Matches, cmp)
			continue
		}
		rep.Mismatches = append(rep.Mismatches, cmp)
		rep.Warnings = append(rep.Warnings, warning)
		if s, ok := suggestionFor(f, docType); ok {
			rep.Suggestions = append(rep.Suggestions, s)
		}
	}

	if rep.TotalFieldsChecked == 0 {
		rep.Warnings = append(rep.Warnings, warnNoOverlap)
		rep.VerificationLevel = models.LevelFailed
		return rep
	}

	rep.MatchPercentage = Percentage(rep.MatchedFields, rep.TotalFieldsChecked)
	rep.HasDataMismatch = len(rep.Mismatches) > 0
	rep.VerificationLevel = Level(rep.MatchPercentage, rep.TotalFieldsChecked)
	return rep
}

func compareField(f models.Field, ocr, user string) (models.MatchResult, string) {
	switch f {
	case models.FieldFullName:
		res := similarity.CompareNames(ocr, user)
		return res, "Name mismatch: " + res.Note
	case models.FieldAddress:
		if address.Match(user, ocr) {
			return models.MatchResult{Matched: true, Confidence: 100, Note: "Address matches"}, ""
		}
		return models.MatchResult{Note: "Address differs"},
			fmt.Sprintf("Address mismatch: ID shows '%s', you entered '%s'", ocr, user)
	case models.FieldIDNumber:
		if IDNumbersEqual(ocr, user) {
			return models.MatchResult{Matched: true, Confidence: 100, Note: "Exact match"}, ""
		}
		return models.MatchResult{Note: "ID number differs"}, idMismatchWarn
	}
	return models.MatchResult{}, ""
}

// IDNumbersEqual compares ID numbers exactly, ignoring spaces and case.
func IDNumbersEqual(a, b string) bool {
	clean := func(s string) string {
		return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	}
	return clean(a) == clean(b)
}

// Percentage returns matched/checked*100, or 0 when nothing was checked.
func Percentage(matched, checked int) float64 {
	if checked <= 0 {
		return 0
	}
	return float64(matched) / float64(checked) * 100
}

// Level grades a match percentage.
func Level(pct float64, checked int) models.VerificationLevel {
	switch {
	case checked == 0:
		return models.LevelFailed
	case pct >= 90:
		return models.LevelHighConfidence
	case pct >= 70:
		return models.LevelMediumConfidence
	case pct >= 50:
		return models.LevelLowConfidence
	}
	return models.LevelFailed
}

func suggestionFor(f models.Field, docType string) (models.Suggestion, bool) {
	doc := strings.TrimSpace(docType)
	if doc == "" {
		doc = "ID"
	}
	switch f {
	case models.FieldFullName:
		return models.Suggestion{
			Field:   f,
			Message: fmt.Sprintf("Verify the name on your %s. Common issues:", doc),
			Tips: []string{
				"Check for middle initials vs full middle names",
				"Verify spelling of last names with special characters (e.g., Dela Cruz)",
				"Ensure name order matches the ID format",
			},
		}, true
	case models.FieldAddress:
		return models.Suggestion{
			Field:   f,
			Message: fmt.Sprintf("Verify the address on your %s:", doc),
			Tips: []string{
				"Use exact format as shown on ID",
				"Include barangay and municipality",
				"Check for abbreviations (St. vs Street)",
			},
		}, true
	case models.FieldIDNumber:
		return models.Suggestion{
			Field:   f,
			Message: "Verify the ID number:",
			Tips: []string{
				"Check for spaces or dashes in the number",
				"Ensure all digits are entered correctly",
				"Verify the ID type matches the number format",
			},
		}, true
	}
	return models.Suggestion{}, false
}
