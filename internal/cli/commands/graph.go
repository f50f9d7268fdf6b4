package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dockhouse/dock/internal/cli/config"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the load order constraints as levels",
		Long: `Display the dependency structure behind the load plan. Files on the
same level have no ordering constraint between them; every file depends
only on files in earlier levels.`,
		Example: `  # Show the levels
  dock graph

  # Machine-readable output
  dock graph --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return runGraph(cmd, jsonOut)
		},
	}
	cmd.Flags().Bool("json", false, "Output levels as JSON")
	return cmd
}

func runGraph(cmd *cobra.Command, jsonOut bool) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	plan, err := newResolver(cfg, logger).Resolve(cfg.DataRoot)
	if err != nil {
		return err
	}

	levels, err := plan.Graph.Levels()
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"levels": levels})
	}

	for i, level := range levels {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", text.Bold.Sprintf("Level %d", i))
		for _, id := range level {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d node(s) across %d level(s)\n", plan.Graph.NodeCount(), len(levels))
	return nil
}
