package engine

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"tagwatch/internal/config"
)

// ErrNotFound indicates absent alarm definition.
var ErrNotFound = errors.New("alarm definition not found")

// Registry owns per-tag alarm definitions.
// Params: definition map guarded for concurrent evaluation and query calls.
// Returns: definition lookup shared by manager and operator API.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]config.AlarmConfig
}

// NewRegistry creates registry seeded with initial definitions.
// Params: optional initial per-tag definitions (may be nil).
// Returns: initialized registry.
func NewRegistry(defs map[string]config.AlarmConfig) *Registry {
	registry := &Registry{defs: make(map[string]config.AlarmConfig, len(defs))}
	for tag, def := range defs {
		registry.defs[tag] = def
	}
	return registry
}

// Register validates and stores one alarm definition.
// Params: alarm definition with non-empty tag.
// Returns: validation error for empty tag identifier.
func (r *Registry) Register(def config.AlarmConfig) error {
	if strings.TrimSpace(def.Tag) == "" {
		return errors.New("alarm tag must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Tag] = def
	return nil
}

// Replace updates one existing definition in place.
// Params: alarm definition whose tag is already registered.
// Returns: ErrNotFound when the tag was never registered.
func (r *Registry) Replace(def config.AlarmConfig) error {
	if strings.TrimSpace(def.Tag) == "" {
		return errors.New("alarm tag must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Tag]; !ok {
		return ErrNotFound
	}
	r.defs[def.Tag] = def
	return nil
}

// Get returns one definition by tag.
// Params: tag identifier.
// Returns: definition or ErrNotFound.
func (r *Registry) Get(tag string) (config.AlarmConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[tag]
	if !ok {
		return config.AlarmConfig{}, ErrNotFound
	}
	return def, nil
}

// List returns all definitions in deterministic tag order.
// Params: none.
// Returns: definitions sorted by tag.
func (r *Registry) List() []config.AlarmConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]config.AlarmConfig, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Tag < defs[j].Tag
	})
	return defs
}

// Len reports configured tag count.
// Params: none.
// Returns: number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
