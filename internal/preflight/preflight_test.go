package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"veritas/internal/classifier"
	"veritas/internal/deps"
	"veritas/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckClassifierBundle(t *testing.T) {
	dir := t.TempDir()
	if result := CheckClassifierBundle(dir); result.Passed {
		t.Fatal("expected failure without model file")
	}
	if err := os.WriteFile(filepath.Join(dir, classifier.ModelFile), []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckClassifierBundle(dir); result.Passed {
		t.Fatal("expected failure without manifest")
	}
	manifest := "input_size: 224\nlabels: [human, artificial]\n"
	if err := os.WriteFile(filepath.Join(dir, classifier.BundleFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckClassifierBundle(dir); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
}

func TestCheckFaceCascade_Garbage(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "facefinder"), 3)
	if result := CheckFaceCascade(path); result.Passed {
		t.Fatal("expected failure for garbage cascade")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Classifier.Enabled = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Data directory", "Log directory", "Scratch directory", "Ledger"} {
		if !names[want] {
			t.Fatalf("missing check %q in %+v", want, results)
		}
	}
}

func TestCapabilityReportModes(t *testing.T) {
	caps := deps.Capabilities{ErrorLevel: true}
	rows := CapabilityReport(caps, true)
	modes := map[string]string{}
	for _, r := range rows {
		modes[r.Signal] = r.Mode
	}
	if modes["Error level analysis"] != ModeMeasured {
		t.Fatalf("ela mode = %q", modes["Error level analysis"])
	}
	if modes["Classifier"] != ModeSimulated {
		t.Fatalf("classifier mode = %q", modes["Classifier"])
	}
	if modes["Face locator"] != ModeWholeImg {
		t.Fatalf("face mode = %q", modes["Face locator"])
	}

	rows = CapabilityReport(caps, false)
	for _, r := range rows {
		if r.Signal == "Classifier" && r.Mode != ModeNeutral {
			t.Fatalf("classifier mode without simulation = %q", r.Mode)
		}
	}
}
