package main

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"veritas/internal/config"
	"veritas/internal/engine"
	"veritas/internal/evidence"
	"veritas/internal/ledger"
	"veritas/internal/logging"
	"veritas/internal/metrics"
	"veritas/internal/preflight"
)

type batchSummary struct {
	Directory string           `json:"directory"`
	Workers   int              `json:"workers"`
	Counts    map[string]int   `json:"counts"`
	Reports   []analysisReport `json:"reports"`
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var metricsFile string
	var jsonOutput bool
	var reuse bool

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Analyze every supported file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			root, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve batch directory: %w", err)
			}
			items, err := collectItems(root)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = cfg.Batch.Workers
			}

			lock, err := ledger.AcquireBatchLock(cfg.BatchLockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				parts := make([]string, 0, len(failed))
				for _, result := range failed {
					parts = append(parts, fmt.Sprintf("%s: %s", result.Name, result.Detail))
				}
				return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
			}

			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			m := metrics.New()
			eng, err := engine.New(cfg, engine.WithLogger(logger), engine.WithObserver(m))
			if err != nil {
				return err
			}
			defer eng.Close()

			logger.Info("batch started",
				logging.String(logging.FieldEventType, "batch_start"),
				logging.String("directory", root),
				logging.Int("files", len(items)),
				logging.Int("workers", workers),
			)

			a := &analyzer{engine: eng, store: store, logger: logger, reuse: reuse}
			reports := make([]analysisReport, len(items))
			group, groupCtx := errgroup.WithContext(cmd.Context())
			group.SetLimit(workers)
			for i, item := range items {
				group.Go(func() error {
					report, err := a.run(groupCtx, item)
					if err != nil {
						return fmt.Errorf("%s: %w", item.Path, err)
					}
					reports[i] = report
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}

			if strings.TrimSpace(metricsFile) != "" {
				if err := m.WriteTextfile(metricsFile); err != nil {
					return err
				}
			}

			summary := batchSummary{
				Directory: root,
				Workers:   workers,
				Counts:    countVerdicts(reports),
				Reports:   reports,
			}
			logger.Info("batch complete",
				logging.String(logging.FieldEventType, "batch_complete"),
				logging.Int("files", len(reports)),
				logging.Any("counts", summary.Counts),
			)
			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			printBatch(out, summary, isTerminal(out))
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent analyses (defaults to batch.workers)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the batch summary as JSON")
	cmd.Flags().BoolVar(&reuse, "reuse", false, "Reuse prior ledger verdicts for identical content")
	return cmd
}

// collectItems walks root and returns supported files in lexical order.
// Hidden files and directories are skipped.
func collectItems(root string) ([]evidence.Item, error) {
	var items []evidence.Item
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !evidence.Supported(path) {
			return nil
		}
		items = append(items, evidence.Item{Path: path, Kind: evidence.KindFromPath(path)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return items, nil
}

func countVerdicts(reports []analysisReport) map[string]int {
	counts := make(map[string]int)
	for _, report := range reports {
		counts[string(report.Result.Verdict)]++
	}
	return counts
}

func printBatch(out io.Writer, summary batchSummary, colorize bool) {
	if len(summary.Reports) == 0 {
		fmt.Fprintf(out, "No supported files under %s\n", summary.Directory)
		return
	}
	rows := make([][]string, 0, len(summary.Reports))
	for _, report := range summary.Reports {
		rel, err := filepath.Rel(summary.Directory, report.Path)
		if err != nil {
			rel = report.Path
		}
		rows = append(rows, []string{
			rel,
			string(report.Kind),
			colorVerdict(report.Result.Verdict, colorize),
			formatConfidence(report.Result.Confidence),
			yesNo(report.Result.Simulated),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Kind", "Verdict", "Confidence", "Simulated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		"Total", strconv.Itoa(len(summary.Reports)),
	))

	verdicts := make([]string, 0, len(summary.Counts))
	for verdict := range summary.Counts {
		verdicts = append(verdicts, verdict)
	}
	sort.Strings(verdicts)
	for _, verdict := range verdicts {
		fmt.Fprintf(out, "%s: %d\n", verdictLabel(evidence.Verdict(verdict)), summary.Counts[verdict])
	}
}
