package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"veritas/internal/ledger"
)

type historyRow struct {
	RequestID  string  `json:"request_id"`
	Path       string  `json:"path"`
	Kind       string  `json:"kind"`
	Status     string  `json:"status"`
	Verdict    string  `json:"verdict,omitempty"`
	Confidence float64 `json:"confidence"`
	Simulated  bool    `json:"simulated"`
	Engine     string  `json:"engine_version"`
	DurationMS int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ledger entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("ledger is disabled (set ledger.enabled = true)")
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return err
			}
			rows := make([]historyRow, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, historyRowFromEntry(entry))
			}
			if jsonOutput {
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No analyses recorded")
				return nil
			}
			colorize := isTerminal(out)
			tableRows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				tableRows = append(tableRows, []string{
					entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					shortID(entry.RequestID),
					entry.Path,
					string(entry.Status),
					colorVerdict(entry.Verdict, colorize),
					formatConfidence(entry.Confidence),
					yesNo(entry.Simulated),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Request", "Evidence", "Status", "Verdict", "Confidence", "Simulated"},
				tableRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (processing, completed, failed)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit entries as JSON")
	return cmd
}

func parseStatuses(values []string) ([]ledger.Status, error) {
	statuses := make([]ledger.Status, 0, len(values))
	for _, value := range values {
		status := ledger.Status(strings.ToLower(strings.TrimSpace(value)))
		switch status {
		case ledger.StatusProcessing, ledger.StatusCompleted, ledger.StatusFailed:
			statuses = append(statuses, status)
		case "":
		default:
			return nil, fmt.Errorf("unknown status %q", value)
		}
	}
	return statuses, nil
}

func historyRowFromEntry(entry *ledger.Entry) historyRow {
	return historyRow{
		RequestID:  entry.RequestID,
		Path:       entry.Path,
		Kind:       string(entry.Kind),
		Status:     string(entry.Status),
		Verdict:    string(entry.Verdict),
		Confidence: entry.Confidence,
		Simulated:  entry.Simulated,
		Engine:     entry.EngineVersion,
		DurationMS: entry.Duration.Milliseconds(),
		Error:      entry.ErrorMessage,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
