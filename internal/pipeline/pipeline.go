// Package pipeline runs a verification end to end: classify, read, extract,
// reconcile and compose a verdict.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"idverify/internal/classifier"
	"idverify/internal/doctype"
	"idverify/internal/extract"
	"idverify/internal/metrics"
	"idverify/internal/models"
	"idverify/internal/ocr"
	"idverify/internal/reconcile"
	"idverify/internal/verdict"
)

// Claims is what the user says about the uploaded document.
type Claims struct {
	UserSelectedType string          `json:"userSelectedType"`
	Fields           models.FieldSet `json:"userFields"`
}

// Validate checks the claims before any collaborator is called.
func (c Claims) Validate() error {
	if strings.TrimSpace(c.UserSelectedType) == "" {
		return fmt.Errorf("%w: userSelectedType is required", models.ErrInvalidRequest)
	}
	for _, f := range models.ComparedFields {
		if c.Fields.Has(f) {
			return nil
		}
	}
	return fmt.Errorf("%w: at least one of fullName, address, idNumber is required", models.ErrInvalidRequest)
}

// Outcome is everything one verification produced.
type Outcome struct {
	ID                   string                    `json:"id"`
	Classification       classifier.Classification `json:"classification"`
	OCR                  ocr.Result                `json:"ocr"`
	Extraction           extract.Result            `json:"extraction"`
	DetectedType         string                    `json:"detectedType"`
	UserSelectedType     string                    `json:"userSelectedType"`
	ClassifierConfidence float64                   `json:"classifierConfidence"`
	UserFields           models.FieldSet           `json:"userFields"`
	Report               models.ComparisonReport   `json:"report"`
	Verdict              models.Verdict            `json:"verdict"`
	// Notices lists collaborator failures that degraded the result.
	Notices  []string      `json:"notices"`
	Duration time.Duration `json:"-"`
}

// Record is the storable summary of o.
func (o Outcome) Record() models.VerificationRecord {
	return models.VerificationRecord{
		ID:                   o.ID,
		DetectedType:         o.DetectedType,
		UserSelectedType:     o.UserSelectedType,
		ClassifierConfidence: o.ClassifierConfidence,
		ClassifierSource:     o.Classification.Source,
		Recommendation:       o.Verdict.Recommendation,
		VerificationLevel:    o.Report.VerificationLevel,
		MatchPercentage:      o.Report.MatchPercentage,
		TotalFieldsChecked:   o.Report.TotalFieldsChecked,
		MatchedFields:        o.Report.MatchedFields,
		IsVerified:           o.Verdict.IsVerified,
		CheckedFields:        o.Report.CheckedFields(),
		MismatchedFields:     o.Report.MismatchedFields(),
	}
}

// Verifier wires the collaborators to the matching core. Collaborators are
// optional; a nil one behaves as unavailable.
type Verifier struct {
	classifier classifier.Classifier
	ocr        ocr.Engine
	extractor  *extract.Extractor
	composer   *verdict.Composer
	log        *zap.Logger
}

type Option func(*Verifier)

func WithExtractor(e *extract.Extractor) Option {
	return func(v *Verifier) { v.extractor = e }
}

func WithThresholds(th verdict.Thresholds) Option {
	return func(v *Verifier) { v.composer = verdict.NewComposer(th) }
}

func WithLogger(l *zap.Logger) Option {
	return func(v *Verifier) { v.log = l }
}

func New(cl classifier.Classifier, eng ocr.Engine, opts ...Option) *Verifier {
	v := &Verifier{
		classifier: cl,
		ocr:        eng,
		extractor:  extract.New(extract.DefaultMaxFieldLen),
		composer:   verdict.NewComposer(verdict.DefaultThresholds()),
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// VerifyImage verifies the document at imagePath against claims. The only
// error is an invalid claim; collaborator failures degrade the outcome.
func (v *Verifier) VerifyImage(ctx context.Context, imagePath string, claims Claims) (Outcome, error) {
	if err := claims.Validate(); err != nil {
		return Outcome{}, err
	}
	start := time.Now()
	out := Outcome{
		ID:               uuid.NewString(),
		UserSelectedType: strings.TrimSpace(claims.UserSelectedType),
		UserFields:       claims.Fields.Clone(),
		Notices:          []string{},
	}

	out.Classification = v.Classify(ctx, imagePath, &out.Notices)
	out.DetectedType = string(doctype.Unknown)
	if out.Classification.Available {
		out.DetectedType = string(out.Classification.DetectedType)
		out.ClassifierConfidence = out.Classification.Confidence
	}

	out.OCR, out.Extraction = v.Read(ctx, imagePath, out.Classification, &out.Notices)

	out.Report = reconcile.Compare(out.Extraction.Fields, out.UserFields, suggestionDocType(out.DetectedType))
	out.Verdict = v.composer.Compose(verdict.Input{
		DetectedType:         out.DetectedType,
		UserSelectedType:     out.UserSelectedType,
		ClassifierConfidence: out.ClassifierConfidence,
		Report:               out.Report,
	})
	out.Duration = time.Since(start)
	v.observe(out, "image")
	return out, nil
}

// VerifyFields runs the matching core on fields extracted elsewhere.
func (v *Verifier) VerifyFields(req models.VerificationRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	start := time.Now()
	ocrFields := req.OCRFields.Clone()
	out := Outcome{
		ID:                   uuid.NewString(),
		DetectedType:         strings.TrimSpace(req.DetectedType),
		UserSelectedType:     strings.TrimSpace(req.UserSelectedType),
		ClassifierConfidence: req.ClassifierConfidence,
		UserFields:           req.UserFields.Clone(),
		Extraction:           extract.Result{Fields: ocrFields, Provenance: map[models.Field]extract.Tier{}},
		Notices:              []string{},
	}
	out.Report = reconcile.Compare(ocrFields, out.UserFields, suggestionDocType(out.DetectedType))
	out.Verdict = v.composer.Compose(verdict.Input{
		DetectedType:         out.DetectedType,
		UserSelectedType:     out.UserSelectedType,
		ClassifierConfidence: out.ClassifierConfidence,
		Report:               out.Report,
	})
	out.Duration = time.Since(start)
	v.observe(out, "fields")
	return out, nil
}

// Classify asks the classifier about the image. Failures and panics yield
// an unavailable classification and a notice.
func (v *Verifier) Classify(ctx context.Context, imagePath string, notices *[]string) classifier.Classification {
	if v.classifier == nil {
		return classifier.Unavailable()
	}
	res, err := guard(func() (classifier.Classification, error) {
		return v.classifier.Classify(ctx, imagePath)
	})
	if err != nil {
		v.log.Warn("classification failed", zap.String("path", imagePath), zap.Error(err))
		metrics.CollaboratorFailures.WithLabelValues("classifier").Inc()
		addNotice(notices, "Document classifier unavailable")
		return classifier.Unavailable()
	}
	if res.Available {
		metrics.ClassifierConfidence.WithLabelValues(res.Source).Observe(res.Confidence)
	}
	return res
}

// Read runs OCR and extraction. The extraction hint is the classified type
// when known, else a guess from the text itself. OCR failures yield empty
// text.
func (v *Verifier) Read(ctx context.Context, imagePath string, cls classifier.Classification, notices *[]string) (ocr.Result, extract.Result) {
	var res ocr.Result
	if v.ocr != nil {
		r, err := guard(func() (ocr.Result, error) {
			return v.ocr.ExtractText(ctx, imagePath)
		})
		if err != nil {
			v.log.Warn("ocr failed", zap.String("path", imagePath), zap.Error(err))
			metrics.CollaboratorFailures.WithLabelValues("ocr").Inc()
			addNotice(notices, "Text recognition unavailable")
			r = ocr.Result{Engine: r.Engine}
		}
		res = r
	} else {
		addNotice(notices, "Text recognition unavailable")
	}
	if !res.Success {
		res.Text = ""
	}

	hint := doctype.Unknown
	if cls.Available && cls.DetectedType != doctype.Unknown {
		hint = cls.DetectedType
	} else if res.Text != "" {
		hint = doctype.DetectFromText(res.Text)
	}
	ext := v.extractor.Extract(res.Text, hint)
	for _, tier := range ext.Provenance {
		metrics.ExtractionTier.WithLabelValues(string(tier)).Inc()
	}
	if ext.Degraded {
		addNotice(notices, "Fields were read with a fallback heuristic")
	}
	return res, ext
}

func (v *Verifier) observe(o Outcome, mode string) {
	metrics.VerificationDuration.WithLabelValues(mode).Observe(o.Duration.Seconds())
	metrics.VerificationsTotal.WithLabelValues(string(o.Verdict.Recommendation), string(o.Report.VerificationLevel)).Inc()
	metrics.MatchPercentage.Observe(o.Report.MatchPercentage)
	for _, m := range o.Report.Matches {
		metrics.FieldComparisons.WithLabelValues(string(m.Field), "match").Inc()
	}
	for _, m := range o.Report.Mismatches {
		metrics.FieldComparisons.WithLabelValues(string(m.Field), "mismatch").Inc()
	}
	v.log.Info("verification complete",
		zap.String("id", o.ID),
		zap.String("mode", mode),
		zap.String("detected_type", o.DetectedType),
		zap.String("user_selected_type", o.UserSelectedType),
		zap.Float64("classifier_confidence", o.ClassifierConfidence),
		zap.Int("fields_checked", o.Report.TotalFieldsChecked),
		zap.Float64("match_percentage", o.Report.MatchPercentage),
		zap.String("level", string(o.Report.VerificationLevel)),
		zap.String("recommendation", string(o.Verdict.Recommendation)),
		zap.Duration("duration", o.Duration),
	)
}

// guard converts a panic in fn into an error.
func guard[T any](fn func() (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func addNotice(notices *[]string, msg string) {
	if notices != nil {
		*notices = append(*notices, msg)
	}
}

func suggestionDocType(detected string) string {
	if detected == string(doctype.Unknown) {
		return ""
	}
	return detected
}
