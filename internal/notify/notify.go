// Package notify is the broadcast sink for themed BanBox announcements.
package notify

//go:generate mockgen -destination=mock/mock_notifier.go -package=mocknotify -source=notify.go

import (
	"context"

	"github.com/KirkDiggler/headsteal/internal/world"
)

// Category groups announcements so each can be switched off
type Category string

const (
	CategoryDeath    Category = "death"
	CategoryRevive   Category = "revive"
	CategoryRelease  Category = "release"
	CategoryHeadDrop Category = "head_drop"
)

// Notifier delivers a broadcast. Implementations must not block the caller.
type Notifier interface {
	Broadcast(ctx context.Context, category Category, message string)
}

// WorldChat broadcasts to every online player. Call it from the main loop.
type WorldChat struct {
	surface world.Surface
}

// NewWorldChat creates a world chat sink
func NewWorldChat(surface world.Surface) *WorldChat {
	return &WorldChat{surface: surface}
}

// Broadcast implements Notifier
func (w *WorldChat) Broadcast(_ context.Context, _ Category, message string) {
	w.surface.Broadcast(message)
}

// Multi fans a broadcast out to several sinks
type Multi []Notifier

// Broadcast implements Notifier
func (m Multi) Broadcast(ctx context.Context, category Category, message string) {
	for _, n := range m {
		if n != nil {
			n.Broadcast(ctx, category, message)
		}
	}
}
