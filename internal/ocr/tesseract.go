package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// TesseractConfig configures the tesseract engine.
type TesseractConfig struct {
	Binary      string // default "tesseract"
	Lang        string // default "eng+fil"
	PSM         int    // page segmentation mode; 6 assumes a uniform block of text
	TessdataDir string
	// Preprocess binarizes the image before recognition.
	Preprocess bool
	// TempDir holds preprocessed copies; empty uses the OS default.
	TempDir string
}

// Tesseract runs the tesseract CLI.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	log    *zap.Logger
}

func NewTesseract(cfg TesseractConfig, log *zap.Logger) *Tesseract {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng+fil"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	return &Tesseract{cfg: cfg, runner: execRunner{log: log}, log: log}
}

// WithRunner swaps the command runner.
func (t *Tesseract) WithRunner(r Runner) *Tesseract {
	t.runner = r
	return t
}

// ExtractText implements Engine.
func (t *Tesseract) ExtractText(ctx context.Context, imagePath string) (Result, error) {
	res := Result{Engine: "tesseract"}

	path := imagePath
	if t.cfg.Preprocess {
		p, cleanup, err := Preprocess(imagePath, t.cfg.TempDir)
		if err != nil {
			t.log.Warn("preprocess failed, using original image", zap.String("path", imagePath), zap.Error(err))
		} else {
			defer cleanup()
			path = p
		}
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, t.args(path)...)
	if err != nil {
		return res, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	res.Text = strings.TrimSpace(string(out))
	res.Success = res.Text != ""
	if !res.Success {
		return res, nil
	}

	tsv, _, err := t.runner.Run(ctx, t.cfg.Binary, append(t.args(path), "tsv")...)
	if err != nil {
		t.log.Debug("tesseract tsv failed", zap.Error(err))
		return res, nil
	}
	res.Confidence = meanTSVConfidence(string(tsv))
	return res, nil
}

// tesseract <file> stdout -l <lang> --psm <n>
func (t *Tesseract) args(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.Lang, "--psm", strconv.Itoa(t.cfg.PSM)}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

// meanTSVConfidence averages the word confidences of tesseract TSV output
// and scales them to [0,1].
func meanTSVConfidence(tsv string) float64 {
	const confCol = 10
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 || strings.TrimSpace(cols[11]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(cols[confCol], 64)
		if err != nil || v < 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n / 100
}
