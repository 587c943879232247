package models

// MatchResult is the outcome of comparing one field.
type MatchResult struct {
	Matched    bool     `json:"matched"`
	Confidence int      `json:"confidence"`
	Similarity *float64 `json:"similarityScore,omitempty"`
	Note       string   `json:"note"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// FieldComparison pairs both values of a compared field with its result.
type FieldComparison struct {
	Field  Field       `json:"field"`
	OCR    string      `json:"ocr"`
	User   string      `json:"user"`
	Result MatchResult `json:"result"`
}

// Suggestion is a fix-up hint for one mismatched field.
type Suggestion struct {
	Field   Field    `json:"field"`
	Message string   `json:"message"`
	Tips    []string `json:"tips"`
}

type VerificationLevel string

const (
	LevelFailed           VerificationLevel = "FAILED"
	LevelLowConfidence    VerificationLevel = "LOW_CONFIDENCE"
	LevelMediumConfidence VerificationLevel = "MEDIUM_CONFIDENCE"
	LevelHighConfidence   VerificationLevel = "HIGH_CONFIDENCE"
)

// ComparisonReport aggregates every field comparison of one verification.
type ComparisonReport struct {
	Matches            []FieldComparison `json:"matches"`
	Mismatches         []FieldComparison `json:"mismatches"`
	Warnings           []string          `json:"warnings"`
	Suggestions        []Suggestion      `json:"suggestions"`
	MatchPercentage    float64           `json:"matchPercentage"`
	TotalFieldsChecked int               `json:"totalFieldsChecked"`
	MatchedFields      int               `json:"matchedFields"`
	HasDataMismatch    bool              `json:"hasDataMismatch"`
	VerificationLevel  VerificationLevel `json:"verificationLevel"`
}

// MismatchedFields lists the names of the fields that did not match.
func (r ComparisonReport) MismatchedFields() []Field {
	out := make([]Field, 0, len(r.Mismatches))
	for _, m := range r.Mismatches {
		out = append(out, m.Field)
	}
	return out
}

// CheckedFields lists every compared field name, matched first.
func (r ComparisonReport) CheckedFields() []Field {
	out := make([]Field, 0, len(r.Matches)+len(r.Mismatches))
	for _, m := range r.Matches {
		out = append(out, m.Field)
	}
	return append(out, r.MismatchedFields()...)
}
