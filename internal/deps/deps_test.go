package deps

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"veritas/internal/classifier"
	"veritas/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cascade")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if status := CheckFile("cascade", file, ""); !status.Available {
		t.Fatalf("expected file available: %#v", status)
	}
	if status := CheckFile("cascade", dir, ""); status.Available {
		t.Fatal("expected directory to be rejected")
	}
	if status := CheckFile("cascade", filepath.Join(dir, "missing"), ""); status.Available {
		t.Fatal("expected missing file to be unavailable")
	}
}

func TestDetectReportsMissingCapabilities(t *testing.T) {
	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "")
	cfg := config.Default()
	cfg.Media.FFmpeg = "veritas-missing-ffmpeg"
	cfg.Media.FFprobe = "veritas-missing-ffprobe"
	cfg.Face.CascadePath = ""
	cfg.Classifier.BundleDir = t.TempDir()
	cfg.ELA.Enabled = false

	caps := Detect(&cfg)
	if caps.FrameExtraction || caps.ContainerProbe || caps.FaceDetector || caps.Classifier || caps.ErrorLevel {
		t.Fatalf("expected every capability missing, got %+v", caps)
	}
	missing := caps.Missing()
	for _, want := range []string{"face_detector", "classifier", "frame_extraction", "container_probe", "error_level"} {
		if !slices.Contains(missing, want) {
			t.Fatalf("expected %q in missing list %v", want, missing)
		}
	}
}

func TestDetectFindsConfiguredBackends(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatalf("write %s stub: %v", name, err)
		}
	}
	bundleDir := t.TempDir()
	for _, name := range []string{classifier.ModelFile, classifier.BundleFile, "libonnxruntime.so"} {
		if err := os.WriteFile(filepath.Join(bundleDir, name), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	cascade := filepath.Join(t.TempDir(), "facefinder")
	if err := os.WriteFile(cascade, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write cascade: %v", err)
	}

	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "")
	cfg := config.Default()
	cfg.Media.FFmpeg = filepath.Join(binDir, "ffmpeg")
	cfg.Media.FFprobe = filepath.Join(binDir, "ffprobe")
	cfg.Face.CascadePath = cascade
	cfg.Classifier.BundleDir = bundleDir

	caps := Detect(&cfg)
	if !caps.FrameExtraction || !caps.ContainerProbe || !caps.FaceDetector || !caps.Classifier || !caps.ErrorLevel {
		t.Fatalf("expected every capability present, got %+v", caps)
	}
	if caps.SharedLibrary != filepath.Join(bundleDir, "libonnxruntime.so") {
		t.Fatalf("unexpected shared library: %q", caps.SharedLibrary)
	}
	if len(caps.Missing()) != 0 {
		t.Fatalf("expected nothing missing, got %v", caps.Missing())
	}
}

func TestResolveSharedLibraryPrefersConfiguredThenEnv(t *testing.T) {
	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "/env/libonnxruntime.so")
	if got := ResolveSharedLibrary("/cfg/libonnxruntime.so", ""); got != "/cfg/libonnxruntime.so" {
		t.Fatalf("expected configured path, got %q", got)
	}
	if got := ResolveSharedLibrary("", ""); got != "/env/libonnxruntime.so" {
		t.Fatalf("expected env path, got %q", got)
	}
}
