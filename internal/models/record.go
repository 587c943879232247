package models

import "time"

// VerificationRecord is the stored summary of one verification. It keeps
// outcome data only; extracted and claimed values are not persisted.
type VerificationRecord struct {
	ID                   string            `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt            time.Time         `json:"created_at"`
	DetectedType         string            `json:"detected_type"`
	UserSelectedType     string            `json:"user_selected_type"`
	ClassifierConfidence float64           `json:"classifier_confidence"`
	ClassifierSource     string            `json:"classifier_source"`
	Recommendation       Recommendation    `gorm:"index" json:"recommendation"`
	VerificationLevel    VerificationLevel `json:"verification_level"`
	MatchPercentage      float64           `json:"match_percentage"`
	TotalFieldsChecked   int               `json:"total_fields_checked"`
	MatchedFields        int               `json:"matched_fields"`
	IsVerified           bool              `json:"is_verified"`
	CheckedFields        []Field           `gorm:"serializer:json" json:"checked_fields"`
	MismatchedFields     []Field           `gorm:"serializer:json" json:"mismatched_fields"`
}
