package gateway

import (
	"context"

	"github.com/KirkDiggler/headsteal/internal/entities"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// Frame types accepted from clients
const (
	FrameJoin     = "join"
	FrameQuit     = "quit"
	FrameGesture  = "gesture"
	FrameSneak    = "sneak"
	FrameHelmet   = "helmet"
	FrameMove     = "move"
	FrameAim      = "aim"
	FrameDeath    = "death"
	FrameInteract = "interact"
	FrameDestroy  = "destroy"
	FrameRelease  = "release"
	// FrameEntityDeath reports a mob dying, with its killer
	FrameEntityDeath = "entity_death"
)

// Reply types sent to clients
const (
	ReplyAck     = "ack"
	ReplyError   = "error"
	ReplyMessage = "message"
)

// Frame is one client command
type Frame struct {
	Seq      uint64             `json:"seq,omitempty"`
	Type     string             `json:"type"`
	PlayerID string             `json:"player_id,omitempty"`
	Name     string             `json:"name,omitempty"`
	Modified bool               `json:"modified,omitempty"`
	Sneaking bool               `json:"sneaking,omitempty"`
	Head     string             `json:"head,omitempty"`
	Location *entities.Location `json:"location,omitempty"`
	KillerID string             `json:"killer_id,omitempty"`
	ObjectID string             `json:"object_id,omitempty"`

	Kind       string `json:"kind,omitempty"`
	KillerKind string `json:"killer_kind,omitempty"`
	Charged    bool   `json:"charged,omitempty"`
}

// Reply is one server message
type Reply struct {
	Seq      uint64 `json:"seq,omitempty"`
	Type     string `json:"type"`
	PlayerID string `json:"player_id,omitempty"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

// validate checks a frame before it is queued for the main loop
func (f *Frame) validate() error {
	switch f.Type {
	case FrameJoin, FrameQuit, FrameGesture, FrameSneak, FrameHelmet, FrameAim, FrameDeath, FrameInteract:
		if f.PlayerID == "" {
			return apperr.InvalidArgumentf("%s frame requires player_id", f.Type)
		}
	case FrameMove:
		if f.PlayerID == "" || f.Location == nil {
			return apperr.InvalidArgument("move frame requires player_id and location")
		}
	case FrameDestroy:
	case FrameEntityDeath:
		if f.Kind == "" || f.Location == nil {
			return apperr.InvalidArgument("entity_death frame requires kind and location")
		}
	case FrameRelease:
		if f.Name == "" {
			return apperr.InvalidArgument("release frame requires name")
		}
	default:
		return apperr.InvalidArgumentf("unknown frame type %q", f.Type)
	}

	switch f.Type {
	case FrameInteract, FrameDestroy, FrameAim:
		if f.ObjectID == "" {
			return apperr.InvalidArgumentf("%s frame requires object_id", f.Type)
		}
	}
	return nil
}

// Apply updates the world for one frame and emits the matching host event.
// It must run on the main loop.
func (g *Gateway) Apply(ctx context.Context, f Frame) error {
	if err := f.validate(); err != nil {
		return err
	}

	switch f.Type {
	case FrameJoin:
		name := f.Name
		if name == "" {
			name = f.PlayerID
		}
		at := g.world.DefaultSpawn()
		if f.Location != nil {
			at = *f.Location
		}
		g.world.Join(entities.Player{ID: f.PlayerID, Name: name}, at)
		return g.bus.Emit(events.NewJoinEvent(f.PlayerID, name))

	case FrameQuit:
		if !g.world.IsOnline(f.PlayerID) {
			return apperr.NotFoundf("player %s is not online", f.PlayerID)
		}
		g.world.Quit(f.PlayerID)
		return g.bus.Emit(events.NewQuitEvent(f.PlayerID))
	}

	switch f.Type {
	case FrameDestroy, FrameRelease, FrameEntityDeath:
	default:
		if !g.world.IsOnline(f.PlayerID) {
			return apperr.FailedPreconditionf("player %s is not online", f.PlayerID)
		}
	}

	switch f.Type {
	case FrameGesture:
		return g.bus.Emit(events.NewGestureEvent(f.PlayerID, f.Modified))

	case FrameSneak:
		g.world.SetSneaking(f.PlayerID, f.Sneaking)
		return nil

	case FrameHelmet:
		var item *entities.Item
		if f.Head != "" {
			head, err := g.heads.HeadItem(f.Head)
			if err != nil {
				return apperr.WrapWithCode(err, apperr.CodeNotFound, "unknown head")
			}
			item = &head
		}
		g.world.SetHelmet(f.PlayerID, item)
		return g.bus.Emit(events.NewHelmetChangeEvent(f.PlayerID, item))

	case FrameMove:
		from, _ := g.world.PlayerLocation(f.PlayerID)
		g.world.Move(f.PlayerID, *f.Location)
		if from.World != f.Location.World {
			return g.bus.Emit(events.NewWorldChangeEvent(f.PlayerID, from.World, f.Location.World))
		}
		return nil

	case FrameAim:
		g.world.SetAim(f.PlayerID, world.ObjectID(f.ObjectID))
		return nil

	case FrameDeath:
		at, _ := g.world.PlayerLocation(f.PlayerID)
		if f.Location != nil {
			at = *f.Location
		}
		return g.bus.Emit(events.NewDeathEvent(f.PlayerID, at, f.KillerID))

	case FrameInteract:
		obj, ok := g.world.Object(world.ObjectID(f.ObjectID))
		if !ok || obj.Item == nil {
			return apperr.NotFoundf("no item %s", f.ObjectID)
		}
		return g.bus.Emit(events.NewTokenInteractEvent(f.PlayerID, obj.ID, *obj.Item))

	case FrameDestroy:
		if !g.world.Destroy(world.ObjectID(f.ObjectID)) {
			return apperr.NotFoundf("no object %s", f.ObjectID)
		}
		return nil

	case FrameEntityDeath:
		return g.bus.Emit(events.NewEntityDeathEvent(f.Kind, *f.Location, f.KillerKind, f.Charged))

	case FrameRelease:
		if g.admin == nil {
			return apperr.Unavailable("operator commands are disabled")
		}
		if _, ok := g.admin.ReleaseByName(ctx, f.Name); !ok {
			return apperr.NotFoundf("%s is not in the BanBox", f.Name)
		}
		return nil
	}

	return nil
}
