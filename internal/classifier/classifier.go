// Package classifier identifies which Philippine ID an image shows.
package classifier

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"idverify/internal/doctype"
)

// Sources of a classification.
const (
	SourceGemini      = "gemini"
	SourceAspectRatio = "aspect-ratio"
	SourceNone        = "none"
)

// maxPredictions is how many ranked types a classification lists.
const maxPredictions = 5

// Classification is a classifier's answer. Available is false when no
// classifier could look at the image.
type Classification struct {
	DetectedType doctype.Type `json:"detectedIdType"`
	Confidence   float64      `json:"confidenceScore"`
	Available    bool         `json:"available"`
	Source       string       `json:"source"`
	Predictions  []Prediction `json:"predictions,omitempty"`
}

// Prediction is one ranked candidate type.
type Prediction struct {
	Type        doctype.Type `json:"type"`
	Probability float64      `json:"probability"`
}

// Classifier labels an image file.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (Classification, error)
}

// Unavailable is returned when every classifier failed.
func Unavailable() Classification {
	return Classification{DetectedType: doctype.Unknown, Source: SourceNone}
}

// Chain tries classifiers in order until one answers.
type Chain struct {
	classifiers []Classifier
	log         *zap.Logger
}

func NewChain(log *zap.Logger, classifiers ...Classifier) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{classifiers: classifiers, log: log}
}

// Classify returns the first available answer. It never returns an
// error; a failing classifier is logged and skipped, and panics are
// treated as failures.
func (c *Chain) Classify(ctx context.Context, imagePath string) (Classification, error) {
	for _, cl := range c.classifiers {
		res, err := safeClassify(ctx, cl, imagePath)
		if err != nil {
			c.log.Warn("classifier failed", zap.String("classifier", fmt.Sprintf("%T", cl)), zap.Error(err))
			continue
		}
		if !res.Available {
			continue
		}
		if len(res.Predictions) == 0 {
			res.Predictions = Rank(res.DetectedType, res.Confidence)
		}
		return res, nil
	}
	return Unavailable(), nil
}

func safeClassify(ctx context.Context, cl Classifier, imagePath string) (res Classification, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return cl.Classify(ctx, imagePath)
}

// Rank spreads the remaining probability over the other known types,
// normalizes across all of them and returns the top candidates.
func Rank(top doctype.Type, confidence float64) []Prediction {
	preds := []Prediction{{Type: top, Probability: confidence}}
	for _, t := range doctype.All() {
		if t == top {
			continue
		}
		p := confidence * 0.3
		if p < 0.01 {
			p = 0.01
		}
		// Others never outrank the detected type.
		if p > confidence {
			p = confidence
		}
		preds = append(preds, Prediction{Type: t, Probability: p})
	}
	var sum float64
	for _, p := range preds {
		sum += p.Probability
	}
	if sum > 0 {
		for i := range preds {
			preds[i].Probability /= sum
		}
	}
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Probability > preds[j].Probability })
	if len(preds) > maxPredictions {
		preds = preds[:maxPredictions]
	}
	return preds
}
