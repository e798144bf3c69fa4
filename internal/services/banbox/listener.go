package banbox

import (
	"context"

	"github.com/KirkDiggler/headsteal/internal/events"
)

// Listener feeds host events into the BanBox service
type Listener struct {
	svc Service
}

// NewListener creates the BanBox event listener
func NewListener(svc Service) *Listener {
	return &Listener{svc: svc}
}

func (l *Listener) ID() string    { return "banbox" }
func (l *Listener) Priority() int { return events.PriorityLifecycle }

// HandleEvent implements events.EventListener
func (l *Listener) HandleEvent(event events.Event) error {
	ctx := context.Background()
	switch e := event.(type) {
	case *events.DeathEvent:
		l.svc.HandleDeath(ctx, e.PlayerID, e.Location, e.KillerID)
	case *events.JoinEvent:
		l.svc.HandleJoin(ctx, e.PlayerID)
	case *events.QuitEvent:
		l.svc.HandleQuit(e.PlayerID)
	case *events.TokenInteractEvent:
		if l.svc.HandleTokenInteract(ctx, e.PlayerID, e.ObjectID, e.Item) {
			e.Cancel()
		}
	case *events.TokenDestroyedEvent:
		l.svc.HandleTokenDestroyed(ctx, e.ObjectID, e.Item, e.Cause)
	}
	return nil
}
