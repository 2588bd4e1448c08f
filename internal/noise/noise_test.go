package noise

import (
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"veritas/internal/evidence"
	"veritas/internal/imageutil"
	"veritas/internal/testsupport"
)

func TestReflect101(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{0, 1, 0},
		{-1, 2, 1},
		{2, 2, 0},
	}
	for _, tc := range cases {
		if got := reflect101(tc.i, tc.n); got != tc.want {
			t.Fatalf("reflect101(%d,%d)=%d want %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestLaplacianVarianceKnownValues(t *testing.T) {
	flat := imageutil.NewPlane(8, 8)
	for i := range flat.Pix {
		flat.Pix[i] = 77
	}
	if got := LaplacianVariance(flat); got != 0 {
		t.Fatalf("flat plane should have zero variance, got %v", got)
	}

	// A single bright pixel in a 3x3 plane: the centre responds with -4v and
	// each edge pixel sees the spike twice through the reflected border.
	spike := imageutil.NewPlane(3, 3)
	spike.Set(1, 1, 9)
	responses := []float64{0, 18, 0, 18, -36, 18, 0, 18, 0}
	_, want := imageutil.MeanVariance(responses)
	if got := LaplacianVariance(spike); math.Abs(got-want) > 1e-9 {
		t.Fatalf("spike variance %v want %v", got, want)
	}
}

func TestMeasureSeparatesNoiseFromSmoothContent(t *testing.T) {
	smooth := Measure(testsupport.Gradient(64, 64), nil)
	noisy := Measure(testsupport.Noisy(64, 64, 9, 25), nil)
	if smooth > 50 {
		t.Fatalf("expected low variance for gradient, got %v", smooth)
	}
	if noisy < 300 {
		t.Fatalf("expected high variance for sensor-like noise, got %v", noisy)
	}
}

func TestMeasureRestrictsToCrop(t *testing.T) {
	img := testsupport.Noisy(64, 64, 2, 30)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}
	crop := &evidence.FaceRegion{X1: 0, Y1: 0, X2: 32, Y2: 32}
	if got := Measure(img, crop); got > 1 {
		t.Fatalf("expected flat crop variance near zero, got %v", got)
	}
	if got := Measure(img, nil); got < 100 {
		t.Fatalf("expected whole-frame variance to include noise, got %v", got)
	}
}

func TestMeasureFileUnreadableIsZero(t *testing.T) {
	if got := MeasureFile(filepath.Join(t.TempDir(), "missing.png"), nil); got != 0 {
		t.Fatalf("expected 0 for unreadable file, got %v", got)
	}
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "n.png"), testsupport.Noisy(32, 32, 4, 25), nil)
	if got := MeasureFile(path, nil); got <= 0 {
		t.Fatalf("expected positive variance, got %v", got)
	}
}

func TestReadingLeansWithVariance(t *testing.T) {
	smooth := Reading(10)
	if smooth.SupportsAuthentic {
		t.Fatal("low variance should not support authenticity")
	}
	textured := Reading(450)
	if !textured.SupportsAuthentic || textured.Strength != 100 {
		t.Fatalf("unexpected reading %+v", textured)
	}
	if v := textured.Evidence["variance"]; v != 450.0 {
		t.Fatalf("variance evidence = %v", v)
	}
}
