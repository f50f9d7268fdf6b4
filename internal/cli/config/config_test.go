package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/dockhouse/dock/internal/store/duckdb"
	_ "github.com/dockhouse/dock/internal/store/postgres"
	_ "github.com/dockhouse/dock/internal/store/sqlite"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "dock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("data-root", "", "")
	flags.String("state", "", "")
	flags.String("env", "", "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, "")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "index.json", cfg.IndexFile)
	assert.Equal(t, []string{".csv"}, cfg.Extensions)
	assert.Equal(t, []string{"assets"}, cfg.IgnoreDirs)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, []string{"id", "name"}, cfg.LookupFields)
	assert.Equal(t, ":", cfg.LookupSeparator)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataRoot)
	assert.Equal(t, filepath.Join(dir, ".dock", "state.db"), cfg.StatePath)
}

func TestLoadConfigFromFile(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
data_root: fixtures
index_file: manifest.json
extensions:
  - .csv
  - .tsv
relation_lookup_fields:
  - id
  - slug
target:
  type: sqlite
  database: dock.db
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "fixtures"), cfg.DataRoot)
	assert.Equal(t, "manifest.json", cfg.IndexFile)
	assert.Equal(t, []string{".csv", ".tsv"}, cfg.Extensions)
	assert.Equal(t, []string{"id", "slug"}, cfg.LookupFields)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, "dock.db", cfg.Target.Database)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, "environment: dev\n")

	t.Setenv("DOCK_ENVIRONMENT", "staging")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
}

func TestLoadConfigFlagsWin(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, "data_root: fixtures\n")

	t.Setenv("DOCK_DATA_ROOT", "envdata")

	flagDir := t.TempDir()
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--data-root", flagDir}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, flagDir, cfg.DataRoot)
}

func TestLoadConfigStateFlagMapsToStatePath(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, "")

	statePath := filepath.Join(t.TempDir(), "runs.db")
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--state", statePath}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, statePath, cfg.StatePath)
}

func TestLoadConfigEnvironmentTargetMerge(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
target:
  type: postgres
  host: localhost
  database: dock
environments:
  prod:
    target:
      host: db.internal
      port: 5433
`)

	cfg, err := LoadConfigWithTarget(path, "prod", nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5433, cfg.Target.Port)
	assert.Equal(t, "dock", cfg.Target.Database, "base fields survive the merge")
}

func TestLoadConfigExpandsCredentialEnvVars(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
target:
  type: postgres
  database: dock
  user: ${DOCK_TEST_USER}
  password: ${DOCK_TEST_PASSWORD}
`)

	t.Setenv("DOCK_TEST_USER", "importer")
	t.Setenv("DOCK_TEST_PASSWORD", "sekrit")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "importer", cfg.Target.User)
	assert.Equal(t, "sekrit", cfg.Target.Password)
}

func TestLoadConfigUnknownTargetType(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, "target:\n  type: oracle\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoadConfigPostgresRequiresDatabase(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, "target:\n  type: postgres\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestMergeTargetConfig(t *testing.T) {
	base := &TargetConfig{Type: "postgres", Host: "localhost", Port: 5432, Options: map[string]string{"sslmode": "disable"}}
	override := &TargetConfig{Host: "db.internal", Options: map[string]string{"sslmode": "require"}}

	merged := MergeTargetConfig(base, override)
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "db.internal", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, "require", merged.Options["sslmode"])

	assert.Same(t, base, MergeTargetConfig(base, nil))
	assert.Same(t, override, MergeTargetConfig(nil, override))
}

func TestValidateDirectories(t *testing.T) {
	cfg := &Config{DataRoot: filepath.Join(t.TempDir(), "missing")}
	require.Error(t, cfg.ValidateDirectories())

	cfg.DataRoot = t.TempDir()
	require.NoError(t, cfg.ValidateDirectories())
}
