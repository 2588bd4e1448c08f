package imageutil_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"veritas/internal/evidence"
	"veritas/internal/imageutil"
	"veritas/internal/services"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestLoadDecodesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(file, solid(8, 4, color.White)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	file.Close()

	img, format, err := imageutil.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if format != "png" {
		t.Fatalf("unexpected format %q", format)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := imageutil.Load(path)
	if !errors.Is(err, services.ErrInputUnreadable) {
		t.Fatalf("expected ErrInputUnreadable, got %v", err)
	}
	if _, _, err := imageutil.Load(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, services.ErrInputUnreadable) {
		t.Fatalf("expected ErrInputUnreadable for missing file, got %v", err)
	}
}

func TestLuminanceUsesBT601Weights(t *testing.T) {
	plane := imageutil.Luminance(solid(2, 2, color.RGBA{R: 255, A: 255}))
	if got := plane.At(1, 1); math.Abs(got-0.299*255) > 0.01 {
		t.Fatalf("unexpected red luma %v", got)
	}
	white := imageutil.Luminance(solid(1, 1, color.White))
	if math.Abs(white.At(0, 0)-255) > 0.01 {
		t.Fatalf("unexpected white luma %v", white.At(0, 0))
	}
}

func TestFitDownscalesLongestSide(t *testing.T) {
	img := imageutil.Fit(solid(400, 100, color.Black), 200)
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 50 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	small := solid(10, 10, color.Black)
	if imageutil.Fit(small, 200) != image.Image(small) {
		t.Fatal("expected small image returned unchanged")
	}
}

func TestCropClipsToBounds(t *testing.T) {
	img := solid(20, 10, color.White)
	out := imageutil.Crop(img, evidence.FaceRegion{X1: 15, Y1: 5, X2: 40, Y2: 40})
	if out.Bounds().Dx() != 5 || out.Bounds().Dy() != 5 {
		t.Fatalf("unexpected crop %v", out.Bounds())
	}
}

func TestPlaneSubAndStats(t *testing.T) {
	plane := imageutil.NewPlane(4, 4)
	for i := range plane.Pix {
		plane.Pix[i] = float64(i)
	}
	sub := plane.Sub(1, 1, 3, 3)
	if sub.Width != 2 || sub.Height != 2 {
		t.Fatalf("unexpected sub size %dx%d", sub.Width, sub.Height)
	}
	if sub.At(0, 0) != 5 || sub.At(1, 1) != 10 {
		t.Fatalf("unexpected sub contents %v", sub.Pix)
	}
	mean, variance := imageutil.MeanVariance([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || variance != 4 {
		t.Fatalf("expected mean 5 variance 4, got %v %v", mean, variance)
	}
	if !plane.Sub(5, 5, 9, 9).Empty() {
		t.Fatal("expected out-of-range sub to be empty")
	}
}
