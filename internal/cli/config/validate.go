package config

import (
	"fmt"
	"os"

	"github.com/dockhouse/dock/internal/store"
)

// Validate checks if the configuration is valid. Directory existence is
// checked separately so help output works outside a project.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("data_root is required")
	}
	if c.IndexFile == "" {
		return fmt.Errorf("index_file is required")
	}
	if c.Target != nil {
		if err := ValidateTarget(c.Target); err != nil {
			return fmt.Errorf("invalid target configuration: %w", err)
		}
	}
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.DataRoot); os.IsNotExist(err) {
		return fmt.Errorf("data root does not exist: %s\nHint: create the directory or use --data-root to point at your data", c.DataRoot)
	}
	return nil
}

// ValidateTarget checks a target against the registered store types.
func ValidateTarget(t *TargetConfig) error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !store.IsRegistered(t.Type) {
		return &store.UnknownStoreError{Type: t.Type, Available: store.List()}
	}
	if t.Type == "postgres" && t.Database == "" {
		return fmt.Errorf("postgres target requires a database name")
	}
	return nil
}
