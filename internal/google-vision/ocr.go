package googlevision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"idverify/internal/ocr"
)

// annotator is the slice of the Vision client the engine needs.
type annotator interface {
	DocumentText(ctx context.Context, content []byte) (*visionpb.TextAnnotation, error)
	Close() error
}

type clientAnnotator struct {
	client *vision.ImageAnnotatorClient
}

func (a clientAnnotator) DocumentText(ctx context.Context, content []byte) (*visionpb.TextAnnotation, error) {
	return a.client.DetectDocumentText(ctx, &visionpb.Image{Content: content}, nil)
}

func (a clientAnnotator) Close() error {
	return a.client.Close()
}

// Engine reads ID cards with Cloud Vision document text detection.
type Engine struct {
	ann      annotator
	attempts uint
	delay    time.Duration
	log      *zap.Logger
}

// New dials Cloud Vision. An empty credPath uses application default
// credentials.
func New(ctx context.Context, credPath string, attempts uint, log *zap.Logger) (*Engine, error) {
	var (
		client *vision.ImageAnnotatorClient
		err    error
	)
	if credPath != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credPath))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init OCR client: %w", err)
	}
	return newEngine(clientAnnotator{client: client}, attempts, log), nil
}

func newEngine(ann annotator, attempts uint, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if attempts == 0 {
		attempts = 3
	}
	return &Engine{ann: ann, attempts: attempts, delay: 500 * time.Millisecond, log: log}
}

// ExtractText implements ocr.Engine.
func (e *Engine) ExtractText(ctx context.Context, imagePath string) (ocr.Result, error) {
	res := ocr.Result{Engine: "vision"}

	imgBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return res, err
	}
	if len(imgBytes) == 0 {
		return res, errors.New("empty image file")
	}

	var annotation *visionpb.TextAnnotation
	err = retry.Do(
		func() error {
			a, err := e.ann.DocumentText(ctx, imgBytes)
			if err != nil {
				return err
			}
			annotation = a
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.Delay(e.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.log.Warn("vision request failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return res, fmt.Errorf("could not extract text from image: %w", err)
	}

	if annotation == nil {
		return res, nil
	}
	res.Text = strings.TrimSpace(annotation.GetText())
	res.Success = res.Text != ""
	res.Confidence = pageConfidence(annotation)
	return res, nil
}

// pageConfidence averages the confidence of the detected pages.
func pageConfidence(a *visionpb.TextAnnotation) float64 {
	pages := a.GetPages()
	if len(pages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pages {
		sum += float64(p.GetConfidence())
	}
	return sum / float64(len(pages))
}

func (e *Engine) Close() error {
	return e.ann.Close()
}
