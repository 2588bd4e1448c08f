package main

import (
	"path/filepath"
	"testing"

	"veritas/internal/evidence"
	"veritas/internal/testsupport"
)

func writeEditedJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	return testsupport.WriteJPEG(t, filepath.Join(dir, name), testsupport.Gradient(64, 64), 92,
		testsupport.EXIFTag{Tag: testsupport.TagSoftware, Value: "Adobe Photoshop 25.0"})
}

func TestAnalyzeJSONRecordsLedgerAndReuses(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeEditedJPEG(t, t.TempDir(), "edited.jpg")

	out, _, err := runCLI(t, []string{"analyze", path, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var first analysisReport
	decodeJSON(t, out, &first)
	if first.Result.Verdict != evidence.VerdictLikelyAIGenerated {
		t.Fatalf("expected metadata short-circuit, got %+v", first.Result)
	}
	if first.IsAuthentic == nil || *first.IsAuthentic {
		t.Fatalf("expected is_authentic=false, got %v", first.IsAuthentic)
	}
	if len(first.SHA256) != 64 || first.RequestID == "" || first.Reused {
		t.Fatalf("unexpected report %+v", first)
	}
	if first.Kind != evidence.KindImage {
		t.Fatalf("expected image kind, got %q", first.Kind)
	}

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var rows []historyRow
	decodeJSON(t, out, &rows)
	if len(rows) != 1 || rows[0].RequestID != first.RequestID || rows[0].Status != "completed" {
		t.Fatalf("unexpected history %+v", rows)
	}

	out, _, err = runCLI(t, []string{"analyze", path, "--json", "--reuse"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze --reuse: %v", err)
	}
	var second analysisReport
	decodeJSON(t, out, &second)
	if !second.Reused || second.RequestID != first.RequestID {
		t.Fatalf("expected reused verdict from %s, got %+v", first.RequestID, second)
	}
	if second.Result.Verdict != first.Result.Verdict || second.Result.Confidence != first.Result.Confidence {
		t.Fatalf("reused verdict differs: %+v vs %+v", second.Result, first.Result)
	}
}

func TestAnalyzeMissingFileReportsErrorVerdict(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "gone.png")

	out, _, err := runCLI(t, []string{"analyze", missing, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var report analysisReport
	decodeJSON(t, out, &report)
	if report.Result.Verdict != evidence.VerdictError || report.IsAuthentic != nil {
		t.Fatalf("expected ERROR verdict, got %+v", report)
	}
	if report.SHA256 != "" {
		t.Fatalf("expected no digest, got %q", report.SHA256)
	}
}

func TestAnalyzeTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeEditedJPEG(t, t.TempDir(), "edited.jpg")

	out, _, err := runCLI(t, []string{"analyze", path}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Likely AI Generated")
	requireContains(t, out, "metadata")
}

func TestAnalyzeRejectsUnknownKind(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeEditedJPEG(t, t.TempDir(), "edited.jpg")

	if _, _, err := runCLI(t, []string{"analyze", path, "--kind", "audio"}, env.configPath); err == nil {
		t.Fatal("expected invalid --kind to fail")
	}
}

func TestVerdictLabel(t *testing.T) {
	cases := map[evidence.Verdict]string{
		evidence.VerdictLikelyReal:        "Likely Real",
		evidence.VerdictLikelyAIGenerated: "Likely AI Generated",
		evidence.VerdictUncertain:         "Uncertain",
		evidence.VerdictError:             "Error",
		"":                                "-",
	}
	for verdict, want := range cases {
		if got := verdictLabel(verdict); got != want {
			t.Fatalf("verdictLabel(%q) = %q, want %q", verdict, got, want)
		}
	}
}
