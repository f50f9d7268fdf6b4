// Package commands tests cover command wiring: names, flags, and output of
// the commands that run without a datastore.
package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanCommand(t *testing.T) {
	cmd := NewPlanCommand()

	assert.Equal(t, "plan", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("json"), "flag json should exist")
}

func TestNewLoadCommand(t *testing.T) {
	cmd := NewLoadCommand()

	assert.Equal(t, "load", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"), "flag dry-run should exist")

	require.NotEmpty(t, cmd.Aliases, "load command should have aliases")
	assert.Equal(t, "import", cmd.Aliases[0])
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	assert.Equal(t, "validate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("watch"), "flag watch should exist")
}

func TestNewGraphCommand(t *testing.T) {
	cmd := NewGraphCommand()

	assert.Equal(t, "graph", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("json"), "flag json should exist")
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history [run-id]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("limit"), "flag limit should exist")
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Contains(t, out.String(), "dock v1.2.3")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "1f6a7dc0", shortID("1f6a7dc0-9f1e-4c1a-8f4e-2b8a6f0d3c9b"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestGetConfigEnvFallback(t *testing.T) {
	t.Setenv("DOCK_DATA_ROOT", "/srv/data")
	t.Setenv("DOCK_ENVIRONMENT", "staging")

	cfg := getConfig()
	assert.Equal(t, "/srv/data", cfg.DataRoot)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "index.json", cfg.IndexFile)
	assert.Equal(t, []string{".csv"}, cfg.Extensions)
}
