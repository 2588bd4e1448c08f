package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"veritas/internal/classifier"
	"veritas/internal/config"
	"veritas/internal/engine"
	"veritas/internal/evidence"
	"veritas/internal/stageexec"
	"veritas/internal/testsupport"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

type observer struct {
	mu       sync.Mutex
	stages   []string
	verdicts []evidence.Verdict
}

func (o *observer) ObserveStage(stage string, _ time.Duration, _ stageexec.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *observer) ObserveVerdict(_ evidence.Kind, verdict evidence.Verdict, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verdicts = append(o.verdicts, verdict)
}

func newEngine(t *testing.T, cfg *config.Config, opts ...engine.Option) *engine.Engine {
	t.Helper()
	eng, err := engine.New(cfg, opts...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func assertBounds(t *testing.T, result evidence.VerdictResult) {
	t.Helper()
	if result.Score < 0 || result.Score > 1 {
		t.Fatalf("score out of range: %v", result.Score)
	}
	if result.Confidence < 0 || result.Confidence > 100 {
		t.Fatalf("confidence out of range: %v", result.Confidence)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := engine.New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestAnalyzeMissingFileIsError(t *testing.T) {
	eng := newEngine(t, testsupport.NewConfig(t))
	result := eng.Analyze(context.Background(), evidence.Item{Path: filepath.Join(t.TempDir(), "gone.jpg"), Kind: evidence.KindImage})
	if result.Verdict != evidence.VerdictError || result.Confidence != 0 || result.Score != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAnalyzeCorruptImageIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	testsupport.WriteFile(t, path, 512)
	eng := newEngine(t, testsupport.NewConfig(t))
	result := eng.Analyze(context.Background(), evidence.Item{Path: path, Kind: evidence.KindImage})
	if result.Verdict != evidence.VerdictError {
		t.Fatalf("expected ERROR, got %+v", result)
	}
}

func TestMetadataHitShortCircuits(t *testing.T) {
	path := testsupport.WriteJPEG(t, filepath.Join(t.TempDir(), "edited.jpg"), testsupport.Gradient(64, 64), 92,
		testsupport.EXIFTag{Tag: testsupport.TagSoftware, Value: "Adobe PHOTOSHOP 25.0"})
	obs := &observer{}
	eng := newEngine(t, testsupport.NewConfig(t), engine.WithObserver(obs))

	result := eng.Analyze(context.Background(), evidence.Item{Path: path, Kind: evidence.KindImage})
	if result.Verdict == evidence.VerdictLikelyReal || result.Verdict == evidence.VerdictError {
		t.Fatalf("unexpected verdict %s", result.Verdict)
	}
	meta, ok := result.Signals[engine.StageMetadata]
	if !ok {
		t.Fatal("metadata signal missing")
	}
	if meta.SupportsAuthentic || meta.Strength < 95 || meta.Strength > 99 {
		t.Fatalf("unexpected metadata reading %+v", meta)
	}
	if len(result.Signals) != 1 {
		t.Fatalf("expected only the metadata signal, got %v", keys(result.Signals))
	}
	if len(obs.stages) != 1 || obs.stages[0] != engine.StageMetadata {
		t.Fatalf("further stages ran: %v", obs.stages)
	}
	assertBounds(t, result)
}

func TestCleanMetadataRunsContentAnalysis(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "plain.png"), testsupport.Noisy(96, 96, 3, 20), nil)
	eng := newEngine(t, testsupport.NewConfig(t, testsupport.WithSimulation(false)))

	result := eng.Analyze(context.Background(), evidence.Item{Path: path, Kind: evidence.KindImage})
	for _, key := range []string{engine.StageMetadata, engine.StageELA, engine.StageSynthetic, engine.StageNoise, engine.StageClassifier, "ensemble"} {
		if _, ok := result.Signals[key]; !ok {
			t.Fatalf("signal %q missing: %v", key, keys(result.Signals))
		}
	}
	if result.Verdict == evidence.VerdictError {
		t.Fatalf("unexpected ERROR: %+v", result)
	}
	if result.Simulated {
		t.Fatal("no simulated readings expected with simulation disabled")
	}
	if cls := result.Signals[engine.StageClassifier]; !cls.Degraded {
		t.Fatalf("classifier without a bundle should be neutral, got %+v", cls)
	}
	assertBounds(t, result)
}

func TestAnalyzeIsIdempotentWithoutSimulation(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		testsupport.WritePNG(t, filepath.Join(dir, "noisy.png"), testsupport.Noisy(128, 128, 11, 35), nil),
		testsupport.WriteJPEG(t, filepath.Join(dir, "camera.jpg"), testsupport.Gradient(128, 96), 90, testsupport.CameraEXIF()...),
		testsupport.WritePNG(t, filepath.Join(dir, "stripes.png"), testsupport.Stripes(256, 256, 4), nil),
	}
	eng := newEngine(t, testsupport.NewConfig(t, testsupport.WithSimulation(false)))
	for _, path := range inputs {
		item := evidence.Item{Path: path, Kind: evidence.KindImage}
		first := eng.Analyze(context.Background(), item)
		second := eng.Analyze(context.Background(), item)
		if first.Verdict != second.Verdict || first.Score != second.Score || first.Confidence != second.Confidence {
			t.Fatalf("%s: results differ: %+v vs %+v", filepath.Base(path), first, second)
		}
		assertBounds(t, first)
	}
}

func TestSimulatedReadingsAreTagged(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "plain.png"), testsupport.Noisy(64, 64, 5, 25), nil)
	eng := newEngine(t, testsupport.NewConfig(t), engine.WithRandom(fixedRandom(0.5)))

	result := eng.Analyze(context.Background(), evidence.Item{Path: path, Kind: evidence.KindImage})
	cls := result.Signals[engine.StageClassifier]
	if !cls.Simulated {
		t.Fatalf("classifier reading not tagged as simulated: %+v", cls)
	}
	if !result.Simulated {
		t.Fatal("result not tagged as simulated")
	}
	if got := cls.Evidence["ai_probability"]; got != 0.5 {
		t.Fatalf("pinned random source not used: ai_probability=%v", got)
	}
}

func TestClassifierPanicIsRecovered(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "plain.png"), testsupport.Gradient(64, 64), nil)
	provider := classifier.NewProvider(classifier.Options{
		Available: true,
		Loader: func(string, string) (classifier.Model, error) {
			panic("runtime exploded")
		},
	})
	eng := newEngine(t, testsupport.NewConfig(t, testsupport.WithSimulation(false)), engine.WithClassifier(provider))

	result := eng.Analyze(context.Background(), evidence.Item{Path: path, Kind: evidence.KindImage})
	if result.Verdict == evidence.VerdictError {
		t.Fatalf("stage panic escalated to ERROR: %+v", result)
	}
	if cls := result.Signals[engine.StageClassifier]; !cls.Degraded {
		t.Fatalf("expected neutral classifier reading, got %+v", cls)
	}
}

func TestKindInferredFromPath(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "plain.png"), testsupport.Gradient(32, 32), nil)
	eng := newEngine(t, testsupport.NewConfig(t, testsupport.WithSimulation(false)))
	result := eng.Analyze(context.Background(), evidence.Item{Path: path})
	if _, ok := result.Signals[engine.StageELA]; !ok {
		t.Fatalf("expected image pipeline, got %v", keys(result.Signals))
	}
}

func TestAnalyzeConcurrentCalls(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "plain.png"), testsupport.Noisy(64, 64, 9, 30), nil)
	obs := &observer{}
	eng := newEngine(t, testsupport.NewConfig(t), engine.WithObserver(obs))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := eng.Analyze(context.Background(), evidence.Item{Path: path, Kind: evidence.KindImage})
			if result.Verdict == evidence.VerdictError {
				t.Errorf("unexpected ERROR")
			}
		}()
	}
	wg.Wait()
	if len(obs.verdicts) != 8 {
		t.Fatalf("observed %d verdicts", len(obs.verdicts))
	}
}

func keys(m map[string]evidence.SignalReading) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func writeVideo(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("container bytes"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}
