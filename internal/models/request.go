package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidRequest marks a malformed verification request.
var ErrInvalidRequest = errors.New("invalid verification request")

// VerificationRequest is the caller contract for a fields-only verification.
type VerificationRequest struct {
	OCRFields            FieldSet `json:"ocrFields"`
	UserFields           FieldSet `json:"userFields"`
	DetectedType         string   `json:"detectedType"`
	UserSelectedType     string   `json:"userSelectedType"`
	ClassifierConfidence float64  `json:"classifierConfidence"`
}

// Validate fails fast on missing or out-of-range request fields.
// An empty OCRFields is valid and leads to a FAILED verification.
func (r VerificationRequest) Validate() error {
	if strings.TrimSpace(r.UserSelectedType) == "" {
		return fmt.Errorf("%w: userSelectedType is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.DetectedType) == "" {
		return fmt.Errorf("%w: detectedType is required", ErrInvalidRequest)
	}
	c := r.ClassifierConfidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return fmt.Errorf("%w: classifierConfidence must be within [0,1], got %v", ErrInvalidRequest, c)
	}
	if r.UserFields == nil {
		return fmt.Errorf("%w: userFields is required", ErrInvalidRequest)
	}
	for _, f := range ComparedFields {
		if r.UserFields.Has(f) {
			return nil
		}
	}
	return fmt.Errorf("%w: userFields must include at least one of fullName, address, idNumber", ErrInvalidRequest)
}
