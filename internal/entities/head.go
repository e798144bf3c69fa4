package entities

import "fmt"

// MaxBossAbilities is the number of activation slots a boss head can fill
const MaxBossAbilities = 3

// HeadRecord describes a collectible head and the abilities it grants while worn
type HeadRecord struct {
	Key           string               `yaml:"key" json:"key"`
	DisplayName   string               `yaml:"displayName" json:"display_name"`
	Category      string               `yaml:"category" json:"category"`
	Ability       *AbilityDescriptor   `yaml:"ability,omitempty" json:"ability,omitempty"`
	BossAbilities []*AbilityDescriptor `yaml:"bossAbilities,omitempty" json:"boss_abilities,omitempty"`
	TextureID     string               `yaml:"texture,omitempty" json:"texture,omitempty"`
}

// IsBoss reports whether the head carries slot-addressed boss abilities
func (h *HeadRecord) IsBoss() bool {
	return len(h.BossAbilities) > 0
}

// BossAbility returns the boss descriptor bound to a slot, if any
func (h *HeadRecord) BossAbility(slot ActivationSlot) (*AbilityDescriptor, bool) {
	for _, d := range h.BossAbilities {
		if d.ActivationSlot == slot {
			return d, true
		}
	}
	return nil, false
}

// Validate checks structural rules of a head record
func (h *HeadRecord) Validate() error {
	if h.Key == "" {
		return fmt.Errorf("head key is required")
	}
	if h.Ability != nil {
		if err := h.Ability.Validate(); err != nil {
			return fmt.Errorf("head %s: %w", h.Key, err)
		}
	}
	if len(h.BossAbilities) > MaxBossAbilities {
		return fmt.Errorf("head %s: at most %d boss abilities allowed, got %d", h.Key, MaxBossAbilities, len(h.BossAbilities))
	}
	seen := make(map[ActivationSlot]bool, len(h.BossAbilities))
	for _, d := range h.BossAbilities {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("head %s: %w", h.Key, err)
		}
		if d.ActivationSlot == SlotPassive {
			return fmt.Errorf("head %s: boss ability %s cannot be passive", h.Key, d.Type)
		}
		if seen[d.ActivationSlot] {
			return fmt.Errorf("head %s: duplicate boss slot %s", h.Key, d.ActivationSlot)
		}
		seen[d.ActivationSlot] = true
	}
	return nil
}
