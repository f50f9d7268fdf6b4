package store

import (
	"log/slog"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Store)
)

// Register adds a store factory to the registry.
// Called by implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Store) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a store factory by name.
func Get(name string) (func(*slog.Logger) Store, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a store instance for the configured type.
// The logger is passed to the factory (nil uses a discard logger).
func New(cfg Config, logger *slog.Logger) (Store, error) {
	if cfg.Type == "" {
		return nil, &UnknownStoreError{Type: "", Available: List()}
	}
	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownStoreError{Type: cfg.Type, Available: List()}
	}
	return factory(logger), nil
}

// List returns all registered store names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a store type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
