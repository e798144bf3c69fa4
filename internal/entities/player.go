package entities

// GameMode mirrors the host's player modes
type GameMode string

const (
	GameModeSurvival  GameMode = "survival"
	GameModeAdventure GameMode = "adventure"
	GameModeCreative  GameMode = "creative"
	GameModeSpectator GameMode = "spectator"
)

// Player is the stable identity of a player plus last-known display name
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
