package events

import (
	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// EventType represents the type of host event
type EventType string

// Event is the base interface for all host events
type Event interface {
	GetType() EventType
	GetPlayerID() string
	IsCancelled() bool
	Cancel()
}

// BaseEvent provides common implementation for all events
type BaseEvent struct {
	Type      EventType
	PlayerID  string
	Cancelled bool
}

func (e *BaseEvent) GetType() EventType  { return e.Type }
func (e *BaseEvent) GetPlayerID() string { return e.PlayerID }
func (e *BaseEvent) IsCancelled() bool   { return e.Cancelled }
func (e *BaseEvent) Cancel()             { e.Cancelled = true }

// GestureEvent is one primary-action input. Modified is set when the player
// held the modifier posture.
type GestureEvent struct {
	BaseEvent
	Modified bool
}

// NewGestureEvent creates a gesture event
func NewGestureEvent(playerID string, modified bool) *GestureEvent {
	return &GestureEvent{
		BaseEvent: BaseEvent{Type: EventTypePlayerGesture, PlayerID: playerID},
		Modified:  modified,
	}
}

// HelmetChangeEvent fires when the head slot changes. Item is nil when emptied.
type HelmetChangeEvent struct {
	BaseEvent
	Item *entities.Item
}

// NewHelmetChangeEvent creates a helmet change event
func NewHelmetChangeEvent(playerID string, item *entities.Item) *HelmetChangeEvent {
	return &HelmetChangeEvent{
		BaseEvent: BaseEvent{Type: EventTypeHelmetChange, PlayerID: playerID},
		Item:      item,
	}
}

// DeathEvent fires when a player dies
type DeathEvent struct {
	BaseEvent
	Location entities.Location
	KillerID string
}

// NewDeathEvent creates a death event
func NewDeathEvent(playerID string, at entities.Location, killerID string) *DeathEvent {
	return &DeathEvent{
		BaseEvent: BaseEvent{Type: EventTypePlayerDeath, PlayerID: playerID},
		Location:  at,
		KillerID:  killerID,
	}
}

// JoinEvent fires after a player connects
type JoinEvent struct {
	BaseEvent
	Name string
}

// NewJoinEvent creates a join event
func NewJoinEvent(playerID, name string) *JoinEvent {
	return &JoinEvent{
		BaseEvent: BaseEvent{Type: EventTypePlayerJoin, PlayerID: playerID},
		Name:      name,
	}
}

// QuitEvent fires when a player disconnects
type QuitEvent struct {
	BaseEvent
}

// NewQuitEvent creates a quit event
func NewQuitEvent(playerID string) *QuitEvent {
	return &QuitEvent{BaseEvent: BaseEvent{Type: EventTypePlayerQuit, PlayerID: playerID}}
}

// WorldChangeEvent fires when a player moves between worlds
type WorldChangeEvent struct {
	BaseEvent
	From string
	To   string
}

// NewWorldChangeEvent creates a world change event
func NewWorldChangeEvent(playerID, from, to string) *WorldChangeEvent {
	return &WorldChangeEvent{
		BaseEvent: BaseEvent{Type: EventTypeWorldChange, PlayerID: playerID},
		From:      from,
		To:        to,
	}
}

// TokenInteractEvent fires when a player interacts with a dropped item that
// may be an identity token. PlayerID is the interacting player.
type TokenInteractEvent struct {
	BaseEvent
	ObjectID world.ObjectID
	Item     entities.Item
}

// NewTokenInteractEvent creates a token interact event
func NewTokenInteractEvent(playerID string, id world.ObjectID, item entities.Item) *TokenInteractEvent {
	return &TokenInteractEvent{
		BaseEvent: BaseEvent{Type: EventTypeTokenInteract, PlayerID: playerID},
		ObjectID:  id,
		Item:      item,
	}
}

// TokenDestroyedEvent fires when a dropped item leaves the world by any means
// other than the core removing it
type TokenDestroyedEvent struct {
	BaseEvent
	ObjectID world.ObjectID
	Item     entities.Item
	Cause    world.RemovalCause
}

// NewTokenDestroyedEvent creates a token destroyed event
func NewTokenDestroyedEvent(id world.ObjectID, item entities.Item, cause world.RemovalCause) *TokenDestroyedEvent {
	return &TokenDestroyedEvent{
		BaseEvent: BaseEvent{Type: EventTypeTokenDestroyed},
		ObjectID:  id,
		Item:      item,
		Cause:     cause,
	}
}

// EntityDeathEvent fires when a non-player entity dies. KillerKind is empty
// when nothing killed it directly; Charged marks a powered creeper.
type EntityDeathEvent struct {
	BaseEvent
	Kind       string
	Location   entities.Location
	KillerKind string
	Charged    bool
}

// NewEntityDeathEvent creates an entity death event
func NewEntityDeathEvent(kind string, at entities.Location, killerKind string, charged bool) *EntityDeathEvent {
	return &EntityDeathEvent{
		BaseEvent:  BaseEvent{Type: EventTypeEntityDeath},
		Kind:       kind,
		Location:   at,
		KillerKind: killerKind,
		Charged:    charged,
	}
}
