package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"veritas/internal/config"
	"veritas/internal/engine"
	"veritas/internal/evidence"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var jsonOutput bool
	var reuse bool

	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze a single image or video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := resolveItem(args[0], kindFlag)
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			eng, err := engine.New(cfg, engine.WithLogger(logger))
			if err != nil {
				return err
			}
			defer eng.Close()

			a := &analyzer{engine: eng, store: store, logger: logger, reuse: reuse}
			report, err := a.run(cmd.Context(), item)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			printReport(out, report, isTerminal(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Evidence kind (image or video); inferred from the extension when empty")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the verdict as JSON")
	cmd.Flags().BoolVar(&reuse, "reuse", false, "Reuse a prior ledger verdict for identical content")
	return cmd
}

func resolveItem(arg, kindFlag string) (evidence.Item, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return evidence.Item{}, fmt.Errorf("resolve evidence path: %w", err)
	}
	if path == "" {
		return evidence.Item{}, fmt.Errorf("evidence path is required")
	}
	kind := evidence.KindFromPath(path)
	if strings.TrimSpace(kindFlag) != "" {
		parsed, ok := evidence.ParseKind(kindFlag)
		if !ok {
			return evidence.Item{}, fmt.Errorf("invalid --kind %q (want image or video)", kindFlag)
		}
		kind = parsed
	}
	return evidence.Item{Path: path, Kind: kind}, nil
}

func printReport(out io.Writer, report analysisReport, colorize bool) {
	result := report.Result
	fields := [][2]string{
		{"Evidence", report.Path},
		{"Kind", string(report.Kind)},
		{"Verdict", colorVerdict(result.Verdict, colorize)},
		{"Authentic", authenticLabel(report.IsAuthentic)},
		{"Confidence", formatConfidence(result.Confidence)},
		{"Score", formatScore(result.Score)},
		{"Simulated", yesNo(result.Simulated)},
		{"Request", report.RequestID},
	}
	if report.SHA256 != "" {
		fields = append(fields, [2]string{"SHA-256", report.SHA256})
	}
	if report.Reused {
		fields = append(fields, [2]string{"Reused", "yes (ledger)"})
	}
	if result.Note != "" {
		fields = append(fields, [2]string{"Note", result.Note})
	}
	fmt.Fprintln(out, renderFields(fields))

	if len(result.Signals) == 0 {
		return
	}
	names := make([]string, 0, len(result.Signals))
	for name := range result.Signals {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		reading := result.Signals[name]
		rows = append(rows, []string{
			name,
			yesNo(reading.SupportsAuthentic),
			fmt.Sprintf("%.1f", reading.Strength),
			yesNo(reading.Degraded),
			yesNo(reading.Simulated),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Signal", "Supports Authentic", "Strength", "Degraded", "Simulated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
}
