package preflight

import (
	"context"

	"veritas/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
	}

	if cfg.Classifier.Enabled {
		results = append(results, CheckClassifierBundle(cfg.Classifier.BundleDir))
	}
	if cfg.Face.CascadePath != "" {
		results = append(results, CheckFaceCascade(cfg.Face.CascadePath))
	}
	if cfg.Ledger.Enabled {
		results = append(results, CheckLedger(ctx, cfg.LedgerPath()))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
