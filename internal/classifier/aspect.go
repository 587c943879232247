package classifier

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"idverify/internal/doctype"
)

// AspectRatio guesses the document type from the image shape. It is the
// fallback when no model is reachable.
type AspectRatio struct{}

// Classify implements Classifier.
func (AspectRatio) Classify(_ context.Context, imagePath string) (Classification, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return Classification{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Classification{}, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Height == 0 {
		return Classification{}, fmt.Errorf("image has zero height")
	}
	t, conf := byShape(cfg.Width, cfg.Height)
	return Classification{
		DetectedType: t,
		Confidence:   conf,
		Available:    true,
		Source:       SourceAspectRatio,
	}, nil
}

func byShape(w, h int) (doctype.Type, float64) {
	ratio := float64(w) / float64(h)
	switch {
	case ratio > 1.4:
		return doctype.Passport, 0.88
	case ratio > 1.0 && ratio <= 1.2:
		return doctype.UMID, 0.82
	case w < 500:
		return doctype.StudentID, 0.75
	}
	return doctype.DriversLicense, 0.85
}
