package ability

import (
	"context"
	"time"

	"github.com/KirkDiggler/headsteal/internal/world"
)

// Ability is one effect body, registered by its type key
type Ability interface {
	// Key returns the unique ability type (e.g., "lifesteal", "summon_allies")
	Key() string

	// Execute performs the effect. A non-nil error counts as a failed invocation.
	Execute(ctx context.Context, ac *Context) error
}

// Cosmetic is implemented by abilities that play a sound or particles on success
type Cosmetic interface {
	Sound() string
	Particle() string
}

// Tracker owns objects summoned by abilities
type Tracker interface {
	Track(playerID string, id world.ObjectID, ttl time.Duration)
	IsTracked(playerID string, id world.ObjectID) bool
	ReleaseEverything()
}

// Cache is per-player state the engine clears on reload and cleanup
type Cache interface {
	ResetAll()
}
