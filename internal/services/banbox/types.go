package banbox

import (
	"context"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/world"
)

const (
	defaultTimerDays         = 7
	defaultReminderEvery     = 5
	defaultReminderLimit     = 60
	defaultReviverExperience = 100

	spectatorLift = 2.0

	soundBoxed   = "entity.wither.spawn"
	soundRevived = "entity.player.levelup"
	soundReward  = "entity.experience_orb.pickup"
)

// Service owns every BanBox record. Handlers run on the main loop; the read
// methods are safe from any goroutine.
type Service interface {
	// Start loads the persisted records. Call it before the main loop runs.
	Start(ctx context.Context) error

	// HandleDeath boxes the player if the death qualifies
	HandleDeath(ctx context.Context, playerID string, at entities.Location, killerID string) bool

	// HandleTokenInteract revives the token's owner on behalf of interactorID
	HandleTokenInteract(ctx context.Context, interactorID string, objectID world.ObjectID, item entities.Item) bool

	// HandleTokenDestroyed releases the owner of a token that left the world
	HandleTokenDestroyed(ctx context.Context, objectID world.ObjectID, item entities.Item, cause world.RemovalCause) bool

	// HandleJoin reconciles a reconnecting player with their record
	HandleJoin(ctx context.Context, playerID string)

	// HandleQuit stops the player's reminders
	HandleQuit(playerID string)

	// Sweep releases every record past its timer
	Sweep(ctx context.Context) int

	// Release frees a boxed player immediately. Not boxed is a no-op.
	Release(ctx context.Context, playerID string) bool

	// ReleaseByName releases by last-known display name
	ReleaseByName(ctx context.Context, name string) (string, bool)

	IsBoxed(playerID string) bool
	Record(playerID string) (*entities.BanBoxRecord, bool)
	Records() []*entities.BanBoxRecord
	BoxedCount() int

	// RunPersister writes snapshots in the background until ctx is done
	RunPersister(ctx context.Context) error

	// Flush writes the latest snapshot synchronously
	Flush(ctx context.Context) error

	// Shutdown cancels reminders and flushes
	Shutdown(ctx context.Context) error
}
