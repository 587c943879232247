package ocr

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Preprocess converts the image to black and white using Otsu's threshold
// and writes it as a PNG in dir. The caller must run cleanup.
func Preprocess(path, dir string) (out string, cleanup func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", nil, fmt.Errorf("decode %s: %w", path, err)
	}

	gray := Grayscale(src)
	Binarize(gray, OtsuThreshold(gray))

	tmp, err := os.CreateTemp(dir, "idverify-pre-*.png")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { _ = os.Remove(tmp.Name()) }
	if err := png.Encode(tmp, gray); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

// Grayscale copies img into an 8-bit gray image.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// OtsuThreshold returns the gray level that best separates foreground
// from background.
func OtsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 128
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var sumB float64
	var wB int
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize sets every pixel above t to white and the rest to black.
func Binarize(g *image.Gray, t uint8) {
	for i, p := range g.Pix {
		if p > t {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
}
