package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

type fakeRunner struct {
	calls [][]string
	text  string
	tsv   string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	if args[len(args)-1] == "tsv" {
		return []byte(f.tsv), nil, nil
	}
	return []byte(f.text), nil, nil
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t50\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tJUAN\n" +
	"5\t1\t1\t1\t1\t2\t12\t0\t10\t10\t70\tCRUZ\n"

func TestTesseract_ExtractText(t *testing.T) {
	r := &fakeRunner{text: "JUAN CRUZ\n", tsv: sampleTSV}
	eng := NewTesseract(TesseractConfig{}, nil).WithRunner(r)

	res, err := eng.ExtractText(context.Background(), "card.png")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !res.Success || res.Text != "JUAN CRUZ" {
		t.Errorf("result = %+v", res)
	}
	if math.Abs(res.Confidence-0.8) > 1e-9 {
		t.Errorf("confidence = %v, want 0.8", res.Confidence)
	}
	want := "tesseract card.png stdout -l eng+fil --psm 6"
	if got := strings.Join(r.calls[0], " "); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
	if len(r.calls) != 2 || r.calls[1][len(r.calls[1])-1] != "tsv" {
		t.Errorf("expected a tsv pass, calls = %v", r.calls)
	}
}

func TestTesseract_EmptyText(t *testing.T) {
	r := &fakeRunner{text: "  \n"}
	res, err := NewTesseract(TesseractConfig{}, nil).WithRunner(r).ExtractText(context.Background(), "x.png")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("empty output reported as success")
	}
	if len(r.calls) != 1 {
		t.Errorf("tsv pass ran on empty text")
	}
}

func TestTesseract_RunnerError(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1")}
	_, err := NewTesseract(TesseractConfig{}, nil).WithRunner(r).ExtractText(context.Background(), "x.png")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v", err)
	}
}

func TestMeanTSVConfidence_NoWords(t *testing.T) {
	if c := meanTSVConfidence("level\tconf\n"); c != 0 {
		t.Errorf("confidence = %v", c)
	}
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPreprocess_Binarizes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			c := color.RGBA{R: 200, G: 210, B: 190, A: 255}
			if x < 5 {
				c = color.RGBA{R: 30, G: 40, B: 20, A: 255}
			}
			src.Set(x, y, c)
		}
	}
	dir := t.TempDir()
	out, cleanup, err := Preprocess(writePNG(t, src), dir)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray", img)
	}
	if g.GrayAt(0, 0).Y != 0 || g.GrayAt(19, 9).Y != 255 {
		t.Errorf("dark=%d light=%d, want 0 and 255", g.GrayAt(0, 0).Y, g.GrayAt(19, 9).Y)
	}

	cleanup()
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("cleanup left the file behind")
	}
}

func TestPreprocess_BMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, cleanup, err := Preprocess(path, t.TempDir())
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	defer cleanup()
	if filepath.Ext(out) != ".png" {
		t.Errorf("output = %q, want a png", out)
	}
}

func TestPreprocess_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Preprocess(path, t.TempDir()); err == nil {
		t.Error("expected decode error")
	}
}

func TestOtsuThreshold_Uniform(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range g.Pix {
		g.Pix[i] = 77
	}
	Binarize(g, OtsuThreshold(g))
	for _, p := range g.Pix {
		if p != 0 && p != 255 {
			t.Fatalf("pixel %d not binary", p)
		}
	}
}
