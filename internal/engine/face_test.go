package engine_test

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"veritas/internal/engine"
	"veritas/internal/evidence"
	"veritas/internal/face"
	"veritas/internal/testsupport"
)

type centredFace struct {
	side  int
	calls int
}

func (c *centredFace) Detect(_ []uint8, rows, cols, _ int) []face.Detection {
	c.calls++
	return []face.Detection{{Row: rows / 2, Col: cols / 2, Scale: c.side, Q: 10}}
}

// mirroredPortrait is symmetric about the vertical centre line.
func mirroredPortrait(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := min(x, size-1-x)
			v := uint8(60 + d*2 + y%7)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestAnalyzeUsesInjectedFaceRegion(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "portrait.png"), mirroredPortrait(128), nil)
	detector := &centredFace{side: 64}
	locator := face.NewLocatorWithDetector(detector, 20, 5)
	eng := newEngine(t, testsupport.NewConfig(t, testsupport.WithSimulation(false)), engine.WithLocator(locator))

	result := eng.Analyze(context.Background(), evidence.Item{Path: path, Kind: evidence.KindImage})
	if detector.calls == 0 {
		t.Fatal("injected detector was not consulted")
	}
	errLevel := result.Signals[engine.StageELA]
	if _, ok := errLevel.Evidence["face_error"]; !ok {
		t.Fatalf("ela ran without the face region: %+v", errLevel.Evidence)
	}
	if _, ok := errLevel.Evidence["delta"]; !ok {
		t.Fatalf("ela missing face delta: %+v", errLevel.Evidence)
	}
	synth := result.Signals[engine.StageSynthetic]
	if _, ok := synth.Evidence["symmetry_mse"]; !ok {
		t.Fatalf("symmetry check did not run: %+v", synth.Evidence)
	}
	if synth.SupportsAuthentic {
		t.Fatalf("mirrored face should read as synthetic, got %+v", synth)
	}
	if result.Verdict != evidence.VerdictLikelyAIGenerated {
		t.Fatalf("expected synthetic finding to decide, got %+v", result)
	}
	if detected := result.Signals[string(evidence.SignalEnsemble)].Evidence["face_detected"]; detected != true {
		t.Fatalf("ensemble did not see the face: %v", detected)
	}
	assertBounds(t, result)
}
