package combo

import (
	"context"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/services/ability"
)

// Gesture is one raw input symbol
type Gesture string

const (
	GesturePlain    Gesture = "plain_click"
	GestureModified Gesture = "modified_click"
)

// Automaton states and events
const (
	StateIdle           = "idle"
	StateAwaitingSecond = "awaiting_second_click"
	eventFirstClick     = "first_click"
	eventSecondClick    = "second_click"
	eventSingleTimeout  = "single_timeout"
	defaultHistory      = 5
	defaultWindowMillis = 500
	defaultResetMillis  = 2000
)

// Executor runs the resolved boss slot
type Executor interface {
	ExecuteBossSlot(ctx context.Context, playerID, headKey string, slot entities.ActivationSlot) (ability.Outcome, error)
}

// Service resolves gestures into boss activation slots, per player
type Service interface {
	// HandleGesture feeds one gesture. It returns the slot resolved right away,
	// or false when resolution is deferred to the double-click window.
	HandleGesture(ctx context.Context, playerID, headKey string, gesture Gesture) (entities.ActivationSlot, bool)

	// ClearPlayer drops a player's state and cancels any pending check
	ClearPlayer(playerID string)

	// ResetAll drops every player's state
	ResetAll()

	// Sweep drops idle trackers older than the reset window
	Sweep() int

	State(playerID string) string
	History(playerID string) []Gesture
	Tracked() int
}
