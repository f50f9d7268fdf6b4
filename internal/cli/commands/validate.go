package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dockhouse/dock/internal/cli/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the data tree without importing",
		Long: `Resolve the data tree and report structural problems: missing or
malformed index files, files present on disk but absent from any
ordering, ordering entries without a matching file, and cycles.

With --watch, dock stays running and re-validates whenever a file in
the tree changes.`,
		Example: `  # Validate once
  dock validate

  # Re-validate on every change
  dock validate --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			watch, _ := cmd.Flags().GetBool("watch")
			return runValidate(cmd, watch)
		},
	}
	cmd.Flags().Bool("watch", false, "Re-validate when files change")
	return cmd
}

func runValidate(cmd *cobra.Command, watch bool) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	err := validateOnce(cmd, cfg, logger)
	if !watch {
		return err
	}
	if err != nil {
		// Watch mode keeps going; the next change may fix the tree.
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", text.FgRed.Sprint("✗"), err)
	}
	return watchTree(cmd, cfg, logger)
}

// validateOnce resolves the tree and prints the verdict.
func validateOnce(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	plan, err := newResolver(cfg, logger).Resolve(cfg.DataRoot)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d file(s) resolved, load order is valid\n",
		text.FgGreen.Sprint("✓"), plan.Len())
	return nil
}

// watchTree blocks re-validating the tree on every filesystem change until
// the context is canceled.
func watchTree(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	root := cfg.DataRoot
	if err := watchDirs(watcher, root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (Ctrl+C to stop)\n", root)
	watchLoop(cmd.Context(), watcher, logger, func(changed string) {
		fmt.Fprintf(cmd.OutOrStdout(), "\nChange detected: %s\n", filepath.Base(changed))
		// New directories need to join the watch before they can trigger it.
		if err := watchDirs(watcher, root); err != nil {
			logger.Warn("failed to refresh watches", "error", err)
		}
		if err := validateOnce(cmd, cfg, logger); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", text.FgRed.Sprint("✗"), err)
		}
	})
	return nil
}

// watchDirs recursively adds every directory under root to the watcher.
func watchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if name := info.Name(); len(name) > 0 && name[0] == '.' && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// watchLoop debounces filesystem events and invokes onChange once per burst.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, logger *slog.Logger, onChange func(string)) {
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			changed := event.Name
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				onChange(changed)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
