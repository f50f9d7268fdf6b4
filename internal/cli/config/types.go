// Package config loads dock's CLI configuration from file, environment
// variables, and flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	DataRoot        string               `koanf:"data_root"`
	IndexFile       string               `koanf:"index_file"`
	Extensions      []string             `koanf:"extensions"`
	IgnoreDirs      []string             `koanf:"ignore_dirs"`
	StatePath       string               `koanf:"state_path"`
	Environment     string               `koanf:"environment"`
	Verbose         bool                 `koanf:"verbose"`
	LookupFields    []string             `koanf:"relation_lookup_fields"`
	LookupSeparator string               `koanf:"lookup_separator"`
	ModelOverrides  map[string]string    `koanf:"model_overrides"`
	Target          *TargetConfig        `koanf:"target"`
	Environments    map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths resolve against. Set by
	// the loader, never read from the config file.
	ProjectRoot string `koanf:"-"`
}

// TargetConfig describes the datastore records are imported into.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Database string            `koanf:"database"`
	Schema   string            `koanf:"schema"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	DataRoot  string        `koanf:"data_root"`
	StatePath string        `koanf:"state_path"`
	Target    *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultDataRoot  = "data"
	DefaultIndexFile = "index.json"
	DefaultStateFile = ".dock/state.db"
	DefaultEnv       = "dev"
)

// DefaultExtensions are the data file extensions loaded when the config
// names none.
func DefaultExtensions() []string { return []string{".csv"} }

// DefaultIgnoreDirs are directory names skipped during resolution.
func DefaultIgnoreDirs() []string { return []string{"assets"} }

// DefaultLookupFields are the fallback fields for reference lookups.
func DefaultLookupFields() []string { return []string{"id", "name"} }
