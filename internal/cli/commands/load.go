package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dockhouse/dock/internal/cli/config"
	"github.com/dockhouse/dock/internal/importer"
	"github.com/dockhouse/dock/internal/state"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "load",
		Aliases: []string{"import"},
		Short:   "Import data files into the target datastore",
		Long: `Resolve the data tree into a load plan and import every file into
the configured target, in order. Rows carrying an id update existing
records; rows without one insert new records. Reference columns
(e.g. "author_id:name") are resolved against the referenced table.

The run and its per-file results are recorded in the state database and
visible via "dock history".`,
		Example: `  # Import the configured data root
  dock load

  # Import into the prod target
  dock load --target prod

  # Resolve only, import nothing
  dock load --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runLoad(cmd, dryRun)
		},
	}
	cmd.Flags().Bool("dry-run", false, "Resolve the plan without importing")
	return cmd
}

func runLoad(cmd *cobra.Command, dryRun bool) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	ctx := cmd.Context()

	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	plan, err := newResolver(cfg, logger).Resolve(cfg.DataRoot)
	if err != nil {
		return err
	}
	if plan.Len() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No data files found under %s\n", plan.Root)
		return nil
	}
	if dryRun {
		printPlanTable(cmd, plan)
		return nil
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runs, err := openState(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = runs.Close() }()

	run, err := runs.CreateRun(cfg.Environment)
	if err != nil {
		return err
	}
	logger.Info("run started", "run_id", run.ID, "environment", run.Environment, "files", plan.Len())

	attempted := 0
	imp := importer.New(st, newStrategy(cfg), logger, importer.Options{
		LookupSeparator: cfg.LookupSeparator,
		LookupFields:    cfg.LookupFields,
		OnFile: func(fr importer.FileResult, ferr error) {
			attempted++
			status := state.FileStatusSuccess
			errMsg := ""
			if ferr != nil {
				status = state.FileStatusFailed
				errMsg = ferr.Error()
			}
			if rerr := runs.RecordFile(&state.FileRun{
				RunID:      run.ID,
				Path:       fr.Path,
				Model:      fr.Model,
				Status:     status,
				Rows:       int64(fr.Rows),
				DurationMS: fr.Duration.Milliseconds(),
				Error:      errMsg,
			}); rerr != nil {
				logger.Warn("failed to record file result", "path", fr.Path, "error", rerr)
			}
		},
	})

	start := time.Now()
	result, impErr := imp.Run(ctx, plan)

	if impErr != nil {
		// Entries past the failure point were never attempted.
		for _, mf := range plan.Entries[attempted:] {
			_ = runs.RecordFile(&state.FileRun{
				RunID:  run.ID,
				Path:   mf.Path,
				Model:  mf.Model,
				Status: state.FileStatusSkipped,
			})
		}
		_ = runs.CompleteRun(run.ID, state.RunStatusFailed, impErr.Error())
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d file(s) imported before failure\n",
			text.FgRed.Sprint("✗"), len(result.Files))
		return impErr
	}
	if err := runs.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
		return err
	}

	printLoadSummary(cmd, result, time.Since(start))
	return nil
}

func printLoadSummary(cmd *cobra.Command, result *importer.Result, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Rows", "Duration"})
	for _, fr := range result.Files {
		t.AppendRow(table.Row{fr.Model, fr.Rows, fr.Duration.Round(time.Millisecond)})
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s Imported %d row(s) from %d file(s) in %s\n",
		text.FgGreen.Sprint("✓"), result.Rows, len(result.Files), elapsed.Round(time.Millisecond))
}
