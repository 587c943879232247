package main

import (
	"context"
	"io"

	"go.uber.org/zap"

	"idverify/internal/classifier"
	"idverify/internal/config"
	"idverify/internal/extract"
	googlevision "idverify/internal/google-vision"
	"idverify/internal/ocr"
	"idverify/internal/pipeline"
	"idverify/internal/verdict"
)

// buildVerifier wires the collaborators named in cfg. Collaborators that
// fail to start are left out and logged; the returned closers release the
// ones that started.
func buildVerifier(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pipeline.Verifier, []io.Closer) {
	var closers []io.Closer

	var engine ocr.Engine
	switch cfg.OCR.Engine {
	case "vision":
		e, err := googlevision.New(ctx, cfg.OCR.CredentialsFile, cfg.OCR.RetryAttempts, log)
		if err != nil {
			log.Error("vision OCR unavailable", zap.Error(err))
			break
		}
		engine = e
		closers = append(closers, e)
	case "tesseract":
		engine = ocr.NewTesseract(ocr.TesseractConfig{
			Binary:      cfg.OCR.TesseractBinary,
			Lang:        cfg.OCR.TesseractLang,
			PSM:         cfg.OCR.TesseractPSM,
			TessdataDir: cfg.OCR.TessdataDir,
			Preprocess:  cfg.OCR.Preprocess,
		}, log)
	}

	var chain []classifier.Classifier
	if cfg.Classifier.Enabled && cfg.Classifier.APIKey != "" {
		g, err := classifier.NewGemini(ctx, cfg.Classifier.APIKey, cfg.Classifier.Model, log)
		if err != nil {
			log.Error("gemini classifier unavailable", zap.Error(err))
		} else {
			chain = append(chain, g)
			closers = append(closers, g)
		}
	}
	if cfg.Classifier.AspectFallback {
		chain = append(chain, classifier.AspectRatio{})
	}
	var cl classifier.Classifier
	if len(chain) > 0 {
		cl = classifier.NewChain(log, chain...)
	}

	v := pipeline.New(cl, engine,
		pipeline.WithExtractor(extract.New(cfg.Thresholds.MaxFieldLength)),
		pipeline.WithThresholds(verdict.Thresholds{
			MismatchConfidence: cfg.Thresholds.MismatchConfidence,
			VerifiedConfidence: cfg.Thresholds.VerifiedConfidence,
		}),
		pipeline.WithLogger(log),
	)
	return v, closers
}
