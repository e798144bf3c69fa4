// Package permissions is the capability provider the core asks before letting a
// player use abilities or enter the BanBox.
package permissions

import "sync"

// Capability names a permission node
type Capability string

const (
	AbilityUse   Capability = "headsteal.ability.use"
	AbilityBoss  Capability = "headsteal.ability.boss"
	BanBoxEnter  Capability = "headsteal.banbox.enter"
	AdminBypass  Capability = "headsteal.admin.bypass"
	AdminRelease Capability = "headsteal.admin.release"
)

// Provider answers capability checks
type Provider interface {
	HasCapability(playerID string, capability Capability) bool
}

// Static grants a default capability set to everyone, with per-player grants and denials on top
type Static struct {
	mu       sync.RWMutex
	defaults map[Capability]bool
	grants   map[string]map[Capability]bool
}

// NewStatic creates a provider granting the given capabilities to every player
func NewStatic(defaults ...Capability) *Static {
	s := &Static{
		defaults: make(map[Capability]bool, len(defaults)),
		grants:   make(map[string]map[Capability]bool),
	}
	for _, c := range defaults {
		s.defaults[c] = true
	}
	return s
}

// NewDefault grants the regular player capabilities
func NewDefault() *Static {
	return NewStatic(AbilityUse, AbilityBoss, BanBoxEnter)
}

// Grant gives one player a capability
func (s *Static) Grant(playerID string, c Capability) {
	s.set(playerID, c, true)
}

// Deny takes a capability away from one player, overriding the defaults
func (s *Static) Deny(playerID string, c Capability) {
	s.set(playerID, c, false)
}

func (s *Static) set(playerID string, c Capability, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	per, ok := s.grants[playerID]
	if !ok {
		per = make(map[Capability]bool)
		s.grants[playerID] = per
	}
	per[c] = value
}

// HasCapability implements Provider
func (s *Static) HasCapability(playerID string, c Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if per, ok := s.grants[playerID]; ok {
		if v, set := per[c]; set {
			return v
		}
	}
	return s.defaults[c]
}
