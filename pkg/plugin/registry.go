package plugin

import (
	"fmt"
	"sync"

	"github.com/orneryd/muninn/pkg/entity"
)

// Registry binds plugin instances to predicates.
//
// One instance per predicate, registered at process start. The registry
// itself is read-mostly and RWMutex-guarded; the plugins it hands out do
// their own locking, so different predicates proceed fully concurrently.
type Registry struct {
	mu      sync.RWMutex
	plugins map[entity.E]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[entity.E]Plugin)}
}

// Register binds a plugin to a predicate and applies its configuration.
// Registering a predicate twice is an error.
func (r *Registry) Register(predicate entity.E, p Plugin, cfg Config) error {
	if err := p.Configure(cfg); err != nil {
		return fmt.Errorf("configuring plugin for %s: %w", predicate.Hex(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[predicate]; exists {
		return fmt.Errorf("plugin already registered for predicate %s", predicate.Hex())
	}
	r.plugins[predicate] = p
	return nil
}

// Get returns the plugin bound to a predicate.
func (r *Registry) Get(predicate entity.E) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[predicate]
	return p, ok
}

// Len returns the number of registered predicates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// HealthSweep runs every plugin's health check, keyed by predicate hex.
func (r *Registry) HealthSweep() map[string]Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Health, len(r.plugins))
	for predicate, p := range r.plugins {
		out[predicate.Hex()] = p.HealthCheck()
	}
	return out
}

// SnapshotAll captures every plugin's state, keyed by predicate hex.
// A failing plugin aborts the sweep - a checkpoint is all-or-nothing.
func (r *Registry) SnapshotAll() (map[string]Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Snapshot, len(r.plugins))
	for predicate, p := range r.plugins {
		snap, err := p.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshotting plugin for %s: %w", predicate.Hex(), err)
		}
		out[predicate.Hex()] = snap
	}
	return out, nil
}
