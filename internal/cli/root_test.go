package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dockhouse/dock/internal/cli/config"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "dock", cmd.Use)
	assert.Equal(t, Version, cmd.Version)

	for _, flag := range []string{"config", "target", "data-root", "index-file", "state", "environment", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "persistent flag %q should exist", flag)
	}

	expected := []string{"version", "plan", "load", "validate", "graph", "history", "completion"}
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, names[name], "command %q should be registered", name)
	}
}

func TestNewCompletionCommand(t *testing.T) {
	cmd := NewCompletionCommand()

	assert.Equal(t, "completion [bash|zsh|fish|powershell]", cmd.Use)
	assert.Equal(t, []string{"bash", "zsh", "fish", "powershell"}, cmd.ValidArgs)
}

func TestNewLoggerLevels(t *testing.T) {
	cmd := NewRootCmd()

	quiet := newLogger(cmd, false)
	assert.False(t, quiet.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, quiet.Enabled(context.Background(), slog.LevelWarn))

	verbose := newLogger(cmd, true)
	assert.True(t, verbose.Enabled(context.Background(), slog.LevelDebug))
}

func TestGetLoggerFallback(t *testing.T) {
	logger := config.GetLogger(context.Background())
	assert.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
