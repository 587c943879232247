package googlevision

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
)

type fakeAnnotator struct {
	failures int
	calls    int
	resp     *visionpb.TextAnnotation
	closed   bool
}

func (f *fakeAnnotator) DocumentText(_ context.Context, content []byte) (*visionpb.TextAnnotation, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("unavailable")
	}
	return f.resp, nil
}

func (f *fakeAnnotator) Close() error {
	f.closed = true
	return nil
}

func imageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.jpg")
	if err := os.WriteFile(path, []byte{0xff, 0xd8, 0xff}, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractText_RetriesThenSucceeds(t *testing.T) {
	ann := &fakeAnnotator{
		failures: 2,
		resp: &visionpb.TextAnnotation{
			Text:  "JUAN DELA CRUZ\nSTUDENT NO: 12345678\n",
			Pages: []*visionpb.Page{{Confidence: 0.9}, {Confidence: 0.7}},
		},
	}
	e := newEngine(ann, 3, nil)
	e.delay = 0

	res, err := e.ExtractText(context.Background(), imageFile(t))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if ann.calls != 3 {
		t.Errorf("calls = %d, want 3", ann.calls)
	}
	if !res.Success || res.Text != "JUAN DELA CRUZ\nSTUDENT NO: 12345678" {
		t.Errorf("result = %+v", res)
	}
	if math.Abs(res.Confidence-0.8) > 1e-6 {
		t.Errorf("confidence = %v, want 0.8", res.Confidence)
	}
	if res.Engine != "vision" {
		t.Errorf("engine = %q", res.Engine)
	}
}

func TestExtractText_GivesUp(t *testing.T) {
	ann := &fakeAnnotator{failures: 10}
	e := newEngine(ann, 2, nil)
	e.delay = 0

	if _, err := e.ExtractText(context.Background(), imageFile(t)); err == nil {
		t.Fatal("expected error")
	}
	if ann.calls != 2 {
		t.Errorf("calls = %d, want 2", ann.calls)
	}
}

func TestExtractText_NoText(t *testing.T) {
	e := newEngine(&fakeAnnotator{}, 1, nil)
	res, err := e.ExtractText(context.Background(), imageFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("nil annotation reported as success")
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	e := newEngine(&fakeAnnotator{}, 1, nil)
	if _, err := e.ExtractText(context.Background(), filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClose(t *testing.T) {
	ann := &fakeAnnotator{}
	if err := newEngine(ann, 1, nil).Close(); err != nil || !ann.closed {
		t.Errorf("Close: err=%v closed=%v", err, ann.closed)
	}
}
