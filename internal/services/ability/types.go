package ability

import (
	"context"
	"time"

	"github.com/KirkDiggler/headsteal/internal/entities"
)

// Outcome summarizes one execution attempt
type Outcome string

const (
	// OutcomeExecuted means the effect body ran and succeeded
	OutcomeExecuted Outcome = "executed"
	// OutcomeRejected means a gate refused the attempt (permission, cooldown, capacity, unknown type)
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means the effect body returned an error or panicked
	OutcomeFailed Outcome = "failed"
	// OutcomeNoOp means there was nothing to run, such as an unbound boss slot
	OutcomeNoOp Outcome = "no-op"
)

// Service defines the ability engine
type Service interface {
	// Register adds an effect body. Re-registering a type replaces it with a warning.
	Register(ability Ability)

	// ExecuteRegular runs a regular head's ability
	ExecuteRegular(ctx context.Context, playerID string, descriptor *entities.AbilityDescriptor) (Outcome, error)

	// ExecuteBossSlot runs the boss ability bound to slot on the given head
	ExecuteBossSlot(ctx context.Context, playerID, headKey string, slot entities.ActivationSlot) (Outcome, error)

	// SetReady opens or closes the engine for execution
	SetReady(ready bool)
	Ready() bool

	// AddCache registers per-player state cleared on Reload and Cleanup
	AddCache(cache Cache)

	// Reload clears cooldown and combo caches, keeping the registry
	Reload()

	// Cleanup removes summoned objects, clears caches and zeroes the counter
	Cleanup()

	// PurgeExpired drops cooldown entries that have run out
	PurgeExpired() int

	// CooldownRemaining returns how long until a player's ability type is usable again
	CooldownRemaining(playerID, abilityType string) time.Duration

	ActiveCount() int
	ActiveAbility(playerID string) (string, bool)
	RegisteredTypes() []string
	Stats() *Stats
}

// Stats is a snapshot of engine counters
type Stats struct {
	Registered int
	Active     int
	Executed   int64
	Rejected   int64
	Failed     int64
}
