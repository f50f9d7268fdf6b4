// Package commands implements dock's subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dockhouse/dock/internal/cli/config"
	"github.com/dockhouse/dock/internal/naming"
	"github.com/dockhouse/dock/internal/resolver"
	"github.com/dockhouse/dock/internal/state"
	"github.com/dockhouse/dock/internal/store"
)

// Helper functions shared across commands

// getConfig returns the current configuration. Falls back to environment
// variables so commands stay usable when the root hook did not run.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	extensions := config.DefaultExtensions()
	if v := os.Getenv("DOCK_EXTENSIONS"); v != "" {
		extensions = strings.Split(v, ",")
	}

	return &config.Config{
		DataRoot:        getEnvOrDefault("DOCK_DATA_ROOT", config.DefaultDataRoot),
		IndexFile:       getEnvOrDefault("DOCK_INDEX_FILE", config.DefaultIndexFile),
		Extensions:      extensions,
		IgnoreDirs:      config.DefaultIgnoreDirs(),
		StatePath:       getEnvOrDefault("DOCK_STATE_PATH", config.DefaultStateFile),
		Environment:     getEnvOrDefault("DOCK_ENVIRONMENT", config.DefaultEnv),
		Verbose:         os.Getenv("DOCK_VERBOSE") == "true",
		LookupFields:    config.DefaultLookupFields(),
		LookupSeparator: ":",
		Target:          &config.TargetConfig{Type: "duckdb"},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// newStrategy builds the naming strategy from config overrides.
func newStrategy(cfg *config.Config) naming.Strategy {
	return naming.NewConvention(cfg.ModelOverrides)
}

// newResolver builds a resolver from the configuration.
func newResolver(cfg *config.Config, logger *slog.Logger) *resolver.Resolver {
	return resolver.New(newStrategy(cfg), logger, resolver.Options{
		IndexFile:  cfg.IndexFile,
		Extensions: cfg.Extensions,
		IgnoreDirs: cfg.IgnoreDirs,
	})
}

// openStore creates and connects the configured datastore.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	t := cfg.Target
	if t == nil {
		t = &config.TargetConfig{Type: "duckdb"}
	}

	st, err := store.New(store.Config{Type: t.Type}, logger)
	if err != nil {
		return nil, err
	}

	storeCfg := store.Config{
		Type:     t.Type,
		Path:     t.Database,
		Database: t.Database,
		Schema:   t.Schema,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
	}
	if err := st.Connect(ctx, storeCfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", t.Type, err)
	}
	return st, nil
}

// openState opens the run-history store, creating its directory and schema
// as needed.
func openState(cfg *config.Config, logger *slog.Logger) (*state.Store, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	st := state.NewStore(logger)
	if err := st.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
