package ability

import (
	"sort"
	"sync"

	"github.com/KirkDiggler/headsteal/internal/logger"
)

// Registry maps ability types to their effect bodies
type Registry struct {
	mu        sync.RWMutex
	abilities map[string]Ability
}

// NewRegistry creates a new ability registry
func NewRegistry() *Registry {
	return &Registry{
		abilities: make(map[string]Ability),
	}
}

// Register adds an ability. The last registration for a type wins.
func (r *Registry) Register(ability Ability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.abilities[ability.Key()]; exists {
		logger.ForComponent("ability").WithField("ability", ability.Key()).Warn("ability type registered twice, replacing previous implementation")
	}
	r.abilities[ability.Key()] = ability
}

// Get retrieves an ability by type
func (r *Registry) Get(key string) (Ability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ability, exists := r.abilities[key]
	return ability, exists
}

// List returns all registered types, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.abilities))
	for key := range r.abilities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.abilities)
}
