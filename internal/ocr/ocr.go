// Package ocr defines the OCR collaborator contract and an offline
// tesseract engine.
package ocr

import "context"

// Result is the text read from one image.
type Result struct {
	Text string `json:"text"`
	// Confidence is the mean word confidence in [0,1]; 0 when unknown.
	Confidence float64 `json:"confidence"`
	// Success is false when the engine produced no usable text.
	Success bool   `json:"success"`
	Engine  string `json:"engine"`
}

// Engine reads text from an image file.
type Engine interface {
	ExtractText(ctx context.Context, imagePath string) (Result, error)
}
