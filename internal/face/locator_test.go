package face

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"veritas/internal/testsupport"
)

type fakeDetector struct {
	detections []Detection
	panics     bool
	gotMinSize int
	gotRows    int
	gotCols    int
}

func (f *fakeDetector) Detect(pixels []uint8, rows, cols, minSize int) []Detection {
	if f.panics {
		panic("cascade corrupted")
	}
	f.gotRows, f.gotCols, f.gotMinSize = rows, cols, minSize
	return f.detections
}

func TestLocatePicksHighestQualityAndClips(t *testing.T) {
	detector := &fakeDetector{detections: []Detection{
		{Row: 50, Col: 50, Scale: 40, Q: 8},
		{Row: 20, Col: 190, Scale: 60, Q: 12},
		{Row: 90, Col: 90, Scale: 30, Q: 2},
	}}
	locator := NewLocatorWithDetector(detector, 20, 5)

	region := locator.Locate(testsupport.Gradient(200, 100))
	if region == nil {
		t.Fatal("expected a face region")
	}
	// Centre (190,20) side 60 overflows right and top edges.
	if region.X1 != 160 || region.Y1 != 0 || region.X2 != 200 || region.Y2 != 50 {
		t.Fatalf("unexpected region %+v", *region)
	}
	if detector.gotRows != 100 || detector.gotCols != 200 {
		t.Fatalf("detector saw %dx%d", detector.gotCols, detector.gotRows)
	}
}

func TestLocateScalesLargeImages(t *testing.T) {
	detector := &fakeDetector{detections: []Detection{{Row: 256, Col: 512, Scale: 100, Q: 20}}}
	locator := NewLocatorWithDetector(detector, 40, 5)

	region := locator.Locate(image.NewRGBA(image.Rect(0, 0, 2048, 1024)))
	if region == nil {
		t.Fatal("expected a face region")
	}
	if detector.gotCols != 1024 || detector.gotRows != 512 {
		t.Fatalf("expected downscaled detection input, got %dx%d", detector.gotCols, detector.gotRows)
	}
	if detector.gotMinSize != 20 {
		t.Fatalf("expected min size scaled to 20, got %d", detector.gotMinSize)
	}
	if region.X1 != 924 || region.Y1 != 412 || region.X2 != 1124 || region.Y2 != 612 {
		t.Fatalf("unexpected region %+v", *region)
	}
}

func TestLocateReturnsNilWithoutUsableDetection(t *testing.T) {
	img := testsupport.Gradient(64, 64)
	cases := map[string]*Locator{
		"no detector":   NewLocatorWithDetector(nil, 20, 5),
		"below quality": NewLocatorWithDetector(&fakeDetector{detections: []Detection{{Row: 10, Col: 10, Scale: 10, Q: 4}}}, 20, 5),
		"panic":         NewLocatorWithDetector(&fakeDetector{panics: true}, 20, 5),
		"no faces":      NewLocatorWithDetector(&fakeDetector{}, 20, 5),
	}
	for name, locator := range cases {
		t.Run(name, func(t *testing.T) {
			if region := locator.Locate(img); region != nil {
				t.Fatalf("expected nil region, got %+v", *region)
			}
		})
	}
}

func TestNewLocatorWithoutCascade(t *testing.T) {
	locator, err := NewLocator(Options{})
	if err != nil {
		t.Fatalf("NewLocator returned error: %v", err)
	}
	if locator.Available() {
		t.Fatal("expected locator without cascade to be unavailable")
	}
	if locator.Locate(testsupport.Gradient(16, 16)) != nil {
		t.Fatal("expected nil region without cascade")
	}
}

func TestNewLocatorRejectsBadCascade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facefinder")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("write cascade: %v", err)
	}
	locator, err := NewLocator(Options{CascadePath: path})
	if err == nil {
		t.Fatal("expected error for corrupt cascade")
	}
	if locator == nil || locator.Available() {
		t.Fatal("expected unusable locator on error")
	}
}
