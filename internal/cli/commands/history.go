package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dockhouse/dock/internal/cli/config"
	"github.com/dockhouse/dock/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past import runs",
		Long: `List past import runs recorded in the state database. Given a run id,
show the per-file results of that run instead.`,
		Example: `  # Show the last 20 runs
  dock history

  # Show more runs
  dock history --limit 50

  # Show one run's file results
  dock history 1f6a7dc0-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if len(args) == 1 {
				return runHistoryDetail(cmd, args[0])
			}
			return runHistory(cmd, limit)
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	runs, err := openState(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = runs.Close() }()

	list, err := runs.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Environment", "Status", "Started", "Duration"})
	for _, run := range list {
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Environment,
			formatRunStatus(run.Status),
			run.StartedAt.Format(time.RFC3339),
			formatRunDuration(run),
		})
	}
	t.Render()
	return nil
}

func runHistoryDetail(cmd *cobra.Command, runID string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	runs, err := openState(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = runs.Close() }()

	run, err := runs.GetRun(runID)
	if err != nil {
		return err
	}
	files, err := runs.ListFileRuns(run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s (%s) %s\n\n", run.ID, run.Environment, formatRunStatus(run.Status))
	if run.Error != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n\n", run.Error)
	}

	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No file results recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Model", "Status", "Rows", "Duration"})
	for _, fr := range files {
		t.AppendRow(table.Row{
			fr.Path,
			fr.Model,
			formatFileStatus(fr.Status),
			fr.Rows,
			time.Duration(fr.DurationMS) * time.Millisecond,
		})
	}
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunStatus(s state.RunStatus) string {
	switch s {
	case state.RunStatusCompleted:
		return text.FgGreen.Sprint(string(s))
	case state.RunStatusFailed:
		return text.FgRed.Sprint(string(s))
	default:
		return string(s)
	}
}

func formatFileStatus(s state.FileStatus) string {
	switch s {
	case state.FileStatusSuccess:
		return text.FgGreen.Sprint(string(s))
	case state.FileStatusFailed:
		return text.FgRed.Sprint(string(s))
	default:
		return string(s)
	}
}

func formatRunDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
