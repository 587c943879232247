package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"idverify/internal/classifier"
	"idverify/internal/doctype"
	"idverify/internal/models"
	"idverify/internal/ocr"
)

const studentCard = "JUAN DELA CRUZ\nSTUDENT NO: 12345678\nBULAN, SORSOGON"

type fakeClassifier struct {
	res   classifier.Classification
	err   error
	panic bool
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, imagePath string) (classifier.Classification, error) {
	f.calls++
	if f.panic {
		panic("model exploded")
	}
	return f.res, f.err
}

type fakeEngine struct {
	res   ocr.Result
	err   error
	calls int
}

func (f *fakeEngine) ExtractText(ctx context.Context, imagePath string) (ocr.Result, error) {
	f.calls++
	return f.res, f.err
}

func studentID(conf float64) *fakeClassifier {
	return &fakeClassifier{res: classifier.Classification{
		DetectedType: doctype.StudentID,
		Confidence:   conf,
		Available:    true,
		Source:       classifier.SourceGemini,
	}}
}

func readText(text string) *fakeEngine {
	return &fakeEngine{res: ocr.Result{Text: text, Confidence: 0.9, Success: true, Engine: "fake"}}
}

func TestVerifyImage_Approve(t *testing.T) {
	v := New(studentID(0.92), readText(studentCard))
	out, err := v.VerifyImage(context.Background(), "card.png", Claims{
		UserSelectedType: "Student ID",
		Fields: models.FieldSet{
			models.FieldFullName: "Juan Dela Cruz",
			models.FieldIDNumber: "12345678",
		},
	})
	if err != nil {
		t.Fatalf("VerifyImage: %v", err)
	}
	if out.ID == "" {
		t.Error("expected an outcome ID")
	}
	if out.DetectedType != string(doctype.StudentID) {
		t.Errorf("DetectedType = %q", out.DetectedType)
	}
	if out.Report.TotalFieldsChecked != 2 || out.Report.MatchedFields != 2 {
		t.Errorf("checked %d matched %d, want 2/2", out.Report.TotalFieldsChecked, out.Report.MatchedFields)
	}
	if out.Report.VerificationLevel != models.LevelHighConfidence {
		t.Errorf("level = %q", out.Report.VerificationLevel)
	}
	if out.Verdict.Recommendation != models.RecommendApprove || !out.Verdict.IsVerified {
		t.Errorf("verdict = %+v, want verified approval", out.Verdict)
	}
	if len(out.Notices) != 0 {
		t.Errorf("notices = %v, want none", out.Notices)
	}
}

func TestVerifyImage_TypeAndDataMismatchRejects(t *testing.T) {
	cl := &fakeClassifier{res: classifier.Classification{
		DetectedType: doctype.Passport, Confidence: 0.85, Available: true, Source: classifier.SourceGemini,
	}}
	v := New(cl, readText(studentCard))
	out, err := v.VerifyImage(context.Background(), "card.png", Claims{
		UserSelectedType: "Drivers License",
		Fields:           models.FieldSet{models.FieldIDNumber: "99999999"},
	})
	if err != nil {
		t.Fatalf("VerifyImage: %v", err)
	}
	if out.Verdict.Recommendation != models.RecommendReject {
		t.Errorf("recommendation = %q, want REJECT", out.Verdict.Recommendation)
	}
	if !out.Verdict.RequiresManualReview {
		t.Error("expected manual review")
	}
}

func TestVerifyImage_OCRFailureDegrades(t *testing.T) {
	eng := &fakeEngine{err: errors.New("tesseract: not found")}
	v := New(studentID(0.9), eng)
	out, err := v.VerifyImage(context.Background(), "card.png", Claims{
		UserSelectedType: "Student ID",
		Fields:           models.FieldSet{models.FieldFullName: "Juan Dela Cruz"},
	})
	if err != nil {
		t.Fatalf("VerifyImage: %v", err)
	}
	if eng.calls != 1 {
		t.Errorf("ocr calls = %d", eng.calls)
	}
	if out.Report.VerificationLevel != models.LevelFailed {
		t.Errorf("level = %q, want FAILED", out.Report.VerificationLevel)
	}
	if out.Report.TotalFieldsChecked != 0 {
		t.Errorf("checked = %d, want 0", out.Report.TotalFieldsChecked)
	}
	if !out.Verdict.RequiresManualReview {
		t.Error("nothing was compared; expected manual review")
	}
	if !containsNotice(out.Notices, "Text recognition") {
		t.Errorf("notices = %v", out.Notices)
	}
}

func TestVerifyImage_UnsuccessfulOCRTextIgnored(t *testing.T) {
	eng := &fakeEngine{res: ocr.Result{Text: studentCard, Success: false, Engine: "fake"}}
	v := New(studentID(0.9), eng)
	out, err := v.VerifyImage(context.Background(), "card.png", Claims{
		UserSelectedType: "Student ID",
		Fields:           models.FieldSet{models.FieldIDNumber: "12345678"},
	})
	if err != nil {
		t.Fatalf("VerifyImage: %v", err)
	}
	if !out.Extraction.Fields.Empty() {
		t.Errorf("fields = %v, want none", out.Extraction.Fields)
	}
}

func TestVerifyImage_ClassifierPanicFallsBackToText(t *testing.T) {
	cl := &fakeClassifier{panic: true}
	v := New(cl, readText("REPUBLIKA NG PILIPINAS\nPHILSYS\nPCN: 1234-5678-9012-3456\nJUAN DELA CRUZ"))
	out, err := v.VerifyImage(context.Background(), "card.png", Claims{
		UserSelectedType: "National ID",
		Fields:           models.FieldSet{models.FieldFullName: "Juan Dela Cruz"},
	})
	if err != nil {
		t.Fatalf("VerifyImage: %v", err)
	}
	if out.Classification.Available {
		t.Error("classification should be unavailable")
	}
	if out.DetectedType != string(doctype.Unknown) || out.ClassifierConfidence != 0 {
		t.Errorf("detected %q at %v, want Unknown at 0", out.DetectedType, out.ClassifierConfidence)
	}
	if !containsNotice(out.Notices, "classifier") {
		t.Errorf("notices = %v", out.Notices)
	}
	// Zero confidence never counts as a confident type mismatch.
	if out.Verdict.Recommendation == models.RecommendReject {
		t.Errorf("recommendation = %q", out.Verdict.Recommendation)
	}
}

func TestVerifyImage_NilCollaborators(t *testing.T) {
	v := New(nil, nil)
	out, err := v.VerifyImage(context.Background(), "card.png", Claims{
		UserSelectedType: "Student ID",
		Fields:           models.FieldSet{models.FieldFullName: "Juan Dela Cruz"},
	})
	if err != nil {
		t.Fatalf("VerifyImage: %v", err)
	}
	if out.Report.VerificationLevel != models.LevelFailed {
		t.Errorf("level = %q", out.Report.VerificationLevel)
	}
}

func TestVerifyImage_InvalidClaims(t *testing.T) {
	cl, eng := studentID(0.9), readText(studentCard)
	v := New(cl, eng)
	tests := []Claims{
		{Fields: models.FieldSet{models.FieldFullName: "Juan"}},
		{UserSelectedType: "Student ID"},
		{UserSelectedType: "Student ID", Fields: models.FieldSet{models.FieldBirthDate: "1990-01-15"}},
	}
	for _, c := range tests {
		if _, err := v.VerifyImage(context.Background(), "card.png", c); !errors.Is(err, models.ErrInvalidRequest) {
			t.Errorf("VerifyImage(%+v) err = %v, want ErrInvalidRequest", c, err)
		}
	}
	if cl.calls != 0 || eng.calls != 0 {
		t.Errorf("collaborators called on invalid claims: classifier %d, ocr %d", cl.calls, eng.calls)
	}
}

func TestVerifyFields(t *testing.T) {
	v := New(nil, nil)
	out, err := v.VerifyFields(models.VerificationRequest{
		OCRFields: models.FieldSet{
			models.FieldFullName: "JUAN DELA CRUZ",
			models.FieldIDNumber: "12345678",
		},
		UserFields: models.FieldSet{
			models.FieldFullName: "Juan Dela Cruz",
			models.FieldIDNumber: "87654321",
		},
		DetectedType:         "Student ID",
		UserSelectedType:     "Student ID",
		ClassifierConfidence: 0.9,
	})
	if err != nil {
		t.Fatalf("VerifyFields: %v", err)
	}
	if out.Report.MatchPercentage != 50 {
		t.Errorf("match = %v, want 50", out.Report.MatchPercentage)
	}
	if out.Verdict.Recommendation != models.RecommendReview {
		t.Errorf("recommendation = %q, want REVIEW", out.Verdict.Recommendation)
	}
	if !strings.Contains(out.Verdict.UserMessage, "87654321") {
		t.Errorf("user message does not name the mismatch: %q", out.Verdict.UserMessage)
	}

	rec := out.Record()
	if rec.ID != out.ID || rec.Recommendation != models.RecommendReview {
		t.Errorf("record = %+v", rec)
	}
	if !reflect.DeepEqual(rec.MismatchedFields, []models.Field{models.FieldIDNumber}) {
		t.Errorf("mismatched = %v", rec.MismatchedFields)
	}
	if !reflect.DeepEqual(rec.CheckedFields, []models.Field{models.FieldFullName, models.FieldIDNumber}) {
		t.Errorf("checked = %v", rec.CheckedFields)
	}
}

func TestVerifyFields_Invalid(t *testing.T) {
	v := New(nil, nil)
	_, err := v.VerifyFields(models.VerificationRequest{
		UserFields:           models.FieldSet{models.FieldFullName: "Juan"},
		DetectedType:         "Student ID",
		UserSelectedType:     "Student ID",
		ClassifierConfidence: 1.5,
	})
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func containsNotice(notices []string, sub string) bool {
	for _, n := range notices {
		if strings.Contains(n, sub) {
			return true
		}
	}
	return false
}
