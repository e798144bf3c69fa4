package entities

import (
	"fmt"
	"time"
)

// ActivationSlot is the input gesture class that triggers an ability
type ActivationSlot string

const (
	SlotLeftClick       ActivationSlot = "left_click"
	SlotShiftLeftClick  ActivationSlot = "shift_left_click"
	SlotDoubleLeftClick ActivationSlot = "double_left_click"
	SlotPassive         ActivationSlot = "passive"
)

// Valid reports whether the slot is one of the known slots
func (s ActivationSlot) Valid() bool {
	switch s {
	case SlotLeftClick, SlotShiftLeftClick, SlotDoubleLeftClick, SlotPassive:
		return true
	}
	return false
}

// AbilityParams maps parameter names to scalar values loaded from the head catalog.
// Treat as read-only once loaded.
type AbilityParams map[string]any

// AbilityDescriptor identifies an ability and how it is triggered
type AbilityDescriptor struct {
	Type           string         `yaml:"type" json:"type"`
	ActivationSlot ActivationSlot `yaml:"activation" json:"activation"`
	Params         AbilityParams  `yaml:"params" json:"params,omitempty"`
}

// Validate checks the descriptor is usable by the engine
func (d *AbilityDescriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("descriptor is nil")
	}
	if d.Type == "" {
		return fmt.Errorf("ability type is required")
	}
	if !d.ActivationSlot.Valid() {
		return fmt.Errorf("ability %s: unknown activation slot %q", d.Type, d.ActivationSlot)
	}
	return nil
}

// Float returns a numeric parameter or the default
func (p AbilityParams) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Int returns an integer parameter or the default
func (p AbilityParams) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns a boolean parameter or the default
func (p AbilityParams) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// String returns a string parameter or the default
func (p AbilityParams) String(key string, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Seconds reads a numeric parameter expressed in seconds
func (p AbilityParams) Seconds(key string, def time.Duration) time.Duration {
	if _, ok := p[key]; !ok {
		return def
	}
	return time.Duration(p.Float(key, def.Seconds()) * float64(time.Second))
}

// Clone returns a shallow copy so callers cannot mutate catalog data
func (p AbilityParams) Clone() AbilityParams {
	out := make(AbilityParams, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
