package events

// Event type constants
const (
	// Input
	EventTypePlayerGesture EventType = "player_gesture"
	EventTypeHelmetChange  EventType = "helmet_change"

	// Player lifecycle
	EventTypePlayerDeath EventType = "player_death"
	EventTypePlayerJoin  EventType = "player_join"
	EventTypePlayerQuit  EventType = "player_quit"
	EventTypeWorldChange EventType = "world_change"

	// Mobs
	EventTypeEntityDeath EventType = "entity_death"

	// Identity tokens
	EventTypeTokenInteract  EventType = "token_interact"
	EventTypeTokenDestroyed EventType = "token_destroyed"
)

// Priority levels for listener order. Lower runs first.
const (
	PriorityCleanup   = 0   // Drop per-player caches before anything reacts
	PriorityLifecycle = 100 // BanBox transitions
	PriorityRouting   = 200 // Gesture and helmet routing
	PriorityObservers = 500 // Logging, relays
)
