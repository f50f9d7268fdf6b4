package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dockhouse/dock/internal/cli/config"
	"github.com/dockhouse/dock/internal/resolver"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the resolved load order",
		Long: `Resolve the data tree into a load plan and print it without
importing anything. The plan lists every data file in the order it would
be loaded, honoring each directory's index ordering.`,
		Example: `  # Show the plan for the configured data root
  dock plan

  # Show the plan for another tree
  dock plan --data-root ./fixtures

  # Machine-readable output
  dock plan --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return runPlan(cmd, jsonOut)
		},
	}
	cmd.Flags().Bool("json", false, "Output the plan as JSON")
	return cmd
}

// planEntry is the JSON shape of one plan line.
type planEntry struct {
	Position int    `json:"position"`
	File     string `json:"file"`
	Model    string `json:"model"`
	Module   string `json:"module,omitempty"`
}

func runPlan(cmd *cobra.Command, jsonOut bool) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	plan, err := newResolver(cfg, logger).Resolve(cfg.DataRoot)
	if err != nil {
		return err
	}

	if jsonOut {
		return printPlanJSON(cmd, plan)
	}
	printPlanTable(cmd, plan)
	return nil
}

func printPlanJSON(cmd *cobra.Command, plan *resolver.Plan) error {
	entries := make([]planEntry, 0, plan.Len())
	for i, mf := range plan.Entries {
		entries = append(entries, planEntry{
			Position: i + 1,
			File:     mf.Rel,
			Model:    mf.Model,
			Module:   mf.ModulePath,
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"root":    plan.Root,
		"entries": entries,
	})
}

func printPlanTable(cmd *cobra.Command, plan *resolver.Plan) {
	if plan.Len() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No data files found under %s\n", plan.Root)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "File", "Model", "Module"})
	for i, mf := range plan.Entries {
		t.AppendRow(table.Row{i + 1, mf.Rel, mf.Model, mf.ModulePath})
	}
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d file(s) in load order\n", plan.Len())
}
