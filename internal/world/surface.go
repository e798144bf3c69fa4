// Package world defines the World Interaction Surface the core drives: spawning and
// removing objects, status effects, teleporting and player messaging. The core keeps
// no world state of its own.
package world

import (
	"time"

	"github.com/KirkDiggler/headsteal/internal/entities"
)

// ObjectID is an opaque handle to a live world object
type ObjectID string

// EffectType names a status effect
type EffectType string

const (
	EffectPoison     EffectType = "poison"
	EffectWither     EffectType = "wither"
	EffectSlowness   EffectType = "slowness"
	EffectWeakness   EffectType = "weakness"
	EffectHunger     EffectType = "hunger"
	EffectBlindness  EffectType = "blindness"
	EffectNausea     EffectType = "nausea"
	EffectSpeed      EffectType = "speed"
	EffectJumpBoost  EffectType = "jump_boost"
	EffectResistance EffectType = "resistance"
	EffectLevitation EffectType = "levitation"
	EffectStrength   EffectType = "strength"
)

// NegativeEffects are cleared on BanBox revival
var NegativeEffects = []EffectType{
	EffectPoison, EffectWither, EffectSlowness, EffectWeakness,
	EffectHunger, EffectBlindness, EffectNausea,
}

// IsNegative reports whether the effect is harmful
func (e EffectType) IsNegative() bool {
	for _, n := range NegativeEffects {
		if n == e {
			return true
		}
	}
	return false
}

// StatusEffect is an effect applied to a player
type StatusEffect struct {
	Type      EffectType
	Amplifier int
	Duration  time.Duration
}

// RemovalCause explains why an object left the world
type RemovalCause string

const (
	// RemovedByCore means the core itself despawned the object
	RemovedByCore RemovalCause = "core"
	// RemovedByPickup means a player collected the item
	RemovedByPickup RemovalCause = "pickup"
	// RemovedByDestruction covers fire, lava, explosions, void and natural despawn
	RemovedByDestruction RemovalCause = "destroyed"
)

// Surface is the set of world capabilities the core consumes
type Surface interface {
	// Players
	IsOnline(playerID string) bool
	Player(playerID string) (entities.Player, bool)
	PlayerLocation(playerID string) (entities.Location, bool)
	GameMode(playerID string) entities.GameMode
	SetGameMode(playerID string, mode entities.GameMode) error
	IsSneaking(playerID string) bool
	Helmet(playerID string) *entities.Item
	Teleport(playerID string, to entities.Location) error
	RestoreVitals(playerID string) error
	Heal(playerID string, amount float64) float64
	ApplyEffect(playerID string, effect StatusEffect) error
	RemoveEffects(playerID string, types ...EffectType) error
	GiveExperience(playerID string, amount int) error
	SendMessage(playerID string, lines ...string)
	ShowActionBar(playerID string, text string)
	PlaySound(playerID string, sound string)
	Broadcast(message string)

	// Objects
	Spawn(kind string, at entities.Location, ownerID string) (ObjectID, error)
	DropItem(at entities.Location, item entities.Item) (ObjectID, error)
	Despawn(id ObjectID) bool
	IsValid(id ObjectID) bool
	ObjectLocation(id ObjectID) (entities.Location, bool)
	NearbyObjects(at entities.Location, radius float64) []ObjectID
	AimTarget(playerID string, maxRange float64) (entities.Location, ObjectID, bool)
	Damage(id ObjectID, amount float64, sourcePlayerID string) error
	SpawnParticles(at entities.Location, particle string, count int)

	// Worlds
	WorldExists(name string) bool
	DefaultSpawn() entities.Location
}
