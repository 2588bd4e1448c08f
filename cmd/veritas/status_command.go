package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veritas/internal/deps"
	"veritas/internal/engine"
	"veritas/internal/preflight"
)

type statusCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type statusCapability struct {
	Signal string `json:"signal"`
	Live   bool   `json:"live"`
	Mode   string `json:"mode"`
	Detail string `json:"detail,omitempty"`
}

type statusReport struct {
	EngineVersion string             `json:"engine_version"`
	ConfigPath    string             `json:"config_path"`
	ConfigExists  bool               `json:"config_exists"`
	Simulate      bool               `json:"simulate_missing"`
	Checks        []statusCheck      `json:"checks"`
	Capabilities  []statusCapability `json:"capabilities"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show preflight checks and signal capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			report := statusReport{
				EngineVersion: engine.Version,
				ConfigPath:    ctx.configPath,
				ConfigExists:  ctx.configExists,
				Simulate:      cfg.Engine.SimulateMissing,
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				report.Checks = append(report.Checks, statusCheck(result))
			}
			for _, row := range preflight.CapabilityReport(deps.Detect(cfg), cfg.Engine.SimulateMissing) {
				report.Capabilities = append(report.Capabilities, statusCapability(row))
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			configLine := report.ConfigPath
			if !report.ConfigExists {
				configLine += " (not found, defaults in use)"
			}
			fmt.Fprintf(out, "Engine: %s\n", report.EngineVersion)
			fmt.Fprintf(out, "Config: %s\n", configLine)
			fmt.Fprintf(out, "Simulate missing capabilities: %s\n\n", yesNo(report.Simulate))

			checkRows := make([][]string, 0, len(report.Checks))
			for _, check := range report.Checks {
				state := "ok"
				if !check.Passed {
					state = "FAILED"
				}
				checkRows = append(checkRows, []string{check.Name, state, check.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			capRows := make([][]string, 0, len(report.Capabilities))
			for _, capability := range report.Capabilities {
				capRows = append(capRows, []string{capability.Signal, yesNo(capability.Live), capability.Mode, capability.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Signal", "Live", "Mode", "Detail"}, capRows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}
