// Package verdict turns a comparison report and the document-type check
// into a recommendation.
package verdict

import (
	"fmt"
	"strings"

	"idverify/internal/doctype"
	"idverify/internal/models"
)

// Default confidence cut-offs.
const (
	DefaultMismatchConfidence = 0.6
	DefaultVerifiedConfidence = 0.7
)

// Thresholds tunes how much the classifier is trusted.
type Thresholds struct {
	// A type mismatch counts only above this classifier confidence.
	MismatchConfidence float64
	// isVerified requires a classifier confidence above this.
	VerifiedConfidence float64
}

// DefaultThresholds returns the standard cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MismatchConfidence: DefaultMismatchConfidence,
		VerifiedConfidence: DefaultVerifiedConfidence,
	}
}

// Input is everything the composer needs.
type Input struct {
	DetectedType         string
	UserSelectedType     string
	ClassifierConfidence float64
	Report               models.ComparisonReport
}

// Composer builds verdicts.
type Composer struct {
	th Thresholds
}

func NewComposer(th Thresholds) *Composer {
	return &Composer{th: th}
}

// Compose applies the decision table: a confident type mismatch together
// with a data mismatch rejects, either one alone needs review, and
// neither approves.
func (c *Composer) Compose(in Input) models.Verdict {
	typeMatch := doctype.TypesMatch(in.UserSelectedType, in.DetectedType)
	typeMismatch := !typeMatch && in.ClassifierConfidence > c.th.MismatchConfidence
	dataMismatch := in.Report.HasDataMismatch

	v := models.Verdict{
		IsDocumentMatch:      typeMatch,
		IsDataMatch:          !dataMismatch,
		RequiresManualReview: typeMismatch || dataMismatch,
		IsVerified:           typeMatch && !dataMismatch && in.ClassifierConfidence > c.th.VerifiedConfidence,
	}

	switch {
	case typeMismatch && dataMismatch:
		v.Recommendation = models.RecommendReject
		v.SystemWarning = fmt.Sprintf("DOCUMENT & DATA MISMATCH: System detected %s, but you selected %s. Also, your information doesn't match the ID.",
			in.DetectedType, in.UserSelectedType)
		v.UserMessage = fmt.Sprintf("WARNING:\n• Document type mismatch: You selected '%s', but ID appears to be '%s'\n• Information mismatch: Your entered details don't match the ID\n\nDo you still want to proceed?",
			in.UserSelectedType, in.DetectedType)
	case typeMismatch:
		v.Recommendation = models.RecommendReview
		v.SystemWarning = fmt.Sprintf("DOCUMENT MISMATCH: System detected %s, but you selected %s.", in.DetectedType, in.UserSelectedType)
		v.UserMessage = fmt.Sprintf("WARNING:\nYou selected '%s', but the provided ID appears to be '%s'\n\nPlease verify your document selection.\n\nDo you still want to proceed?",
			in.UserSelectedType, in.DetectedType)
	case dataMismatch:
		v.Recommendation = models.RecommendReview
		v.SystemWarning = "DATA MISMATCH: Your information doesn't match the ID."
		v.UserMessage = "WARNING:\nYour information doesn't match the ID:\n" + mismatchLines(in.Report) + "\n\nDo you still want to proceed?"
	default:
		v.Recommendation = models.RecommendApprove
		if in.Report.TotalFieldsChecked == 0 {
			// Nothing was compared, so the data check passed vacuously.
			v.RequiresManualReview = true
			v.SystemWarning = "DOCUMENT VERIFIED: No fields could be compared with the ID."
			v.UserMessage = fmt.Sprintf("VERIFIED:\n• Document type: %s\n• Information: Could not be read from your ID\n\nYou may proceed with your request.", in.DetectedType)
			break
		}
		v.SystemWarning = "ALL VERIFIED: Document type and information match."
		v.UserMessage = fmt.Sprintf("VERIFIED:\n• Document type: %s\n• Information: Matches your ID\n\nYou may proceed with your request.", in.DetectedType)
	}
	return v
}

func mismatchLines(r models.ComparisonReport) string {
	lines := make([]string, 0, len(r.Mismatches))
	for _, m := range r.Mismatches {
		lines = append(lines, fmt.Sprintf("• %s: You entered '%s', but ID shows '%s'", m.Field, m.User, m.OCR))
	}
	return strings.Join(lines, "\n")
}
