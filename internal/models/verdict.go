package models

type Recommendation string

const (
	RecommendApprove Recommendation = "APPROVE"
	RecommendReview  Recommendation = "REVIEW"
	RecommendReject  Recommendation = "REJECT"
)

// Verdict is the final decision shown to the user.
type Verdict struct {
	Recommendation       Recommendation `json:"recommendation"`
	SystemWarning        string         `json:"systemWarning"`
	UserMessage          string         `json:"userMessage"`
	IsVerified           bool           `json:"isVerified"`
	IsDocumentMatch      bool           `json:"isDocumentMatch"`
	IsDataMatch          bool           `json:"isDataMatch"`
	RequiresManualReview bool           `json:"requiresManualReview"`
}
