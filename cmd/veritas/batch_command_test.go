package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"veritas/internal/evidence"
	"veritas/internal/ledger"
	"veritas/internal/testsupport"
)

func TestBatchAnalyzesSupportedFilesAndWritesMetrics(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	writeEditedJPEG(t, dir, "a.jpg")
	testsupport.WritePNG(t, filepath.Join(dir, "nested", "b.png"), testsupport.Noisy(64, 64, 5, 20), nil)
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 16)
	writeEditedJPEG(t, filepath.Join(dir, ".hidden"), "c.jpg")
	metricsPath := filepath.Join(t.TempDir(), "veritas.prom")

	out, _, err := runCLI(t, []string{"batch", dir, "--workers", "2", "--json", "--metrics-file", metricsPath}, env.configPath)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var summary batchSummary
	decodeJSON(t, out, &summary)
	if len(summary.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(summary.Reports))
	}
	total := 0
	for _, count := range summary.Counts {
		total += count
	}
	if total != 2 {
		t.Fatalf("unexpected verdict counts %v", summary.Counts)
	}
	if !strings.HasSuffix(summary.Reports[0].Path, "a.jpg") ||
		summary.Reports[0].Result.Verdict != evidence.VerdictLikelyAIGenerated {
		t.Fatalf("unexpected first report %+v", summary.Reports[0])
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(data), "veritas_verdicts_total")
	requireContains(t, string(data), "veritas_stage_duration_seconds")

	out, _, err = runCLI(t, []string{"history", "--json", "--status", "completed"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var rows []historyRow
	decodeJSON(t, out, &rows)
	if len(rows) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(rows))
	}
}

func TestBatchRefusesWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := env.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	lock, err := ledger.AcquireBatchLock(env.cfg.BatchLockPath())
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"batch", t.TempDir()}, env.configPath)
	if !errors.Is(err, ledger.ErrBatchRunning) {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}
}

func TestBatchFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Classifier.Enabled = true
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"batch", t.TempDir()}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
}

func TestCollectItemsSkipsHiddenAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "b.mp4"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, "a.png"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, "readme.md"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, ".cache", "x.jpg"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, ".y.jpg"), 8)

	items, err := collectItems(dir)
	if err != nil {
		t.Fatalf("collectItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if filepath.Base(items[0].Path) != "a.png" || items[0].Kind != evidence.KindImage {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if filepath.Base(items[1].Path) != "b.mp4" || items[1].Kind != evidence.KindVideo {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}
