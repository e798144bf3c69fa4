package ability

import (
	"time"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// Context is what an effect body sees for one invocation
type Context struct {
	Player     entities.Player
	Descriptor *entities.AbilityDescriptor
	Params     entities.AbilityParams
	Boss       bool
	At         time.Time
	World      world.Surface

	tracker   Tracker
	particles bool
}

// Location is the player's current position
func (c *Context) Location() entities.Location {
	loc, _ := c.World.PlayerLocation(c.Player.ID)
	return loc
}

// Track hands a summoned object to the resource manager. A zero ttl never expires.
func (c *Context) Track(id world.ObjectID, ttl time.Duration) {
	if c.tracker == nil {
		return
	}
	c.tracker.Track(c.Player.ID, id, ttl)
}

// Targets returns objects near the player that are not the player's own summons
func (c *Context) Targets(radius float64) []world.ObjectID {
	return c.TargetsAround(c.Location(), radius)
}

// TargetsAround is Targets centred on an arbitrary point
func (c *Context) TargetsAround(at entities.Location, radius float64) []world.ObjectID {
	var out []world.ObjectID
	for _, id := range c.World.NearbyObjects(at, radius) {
		if c.tracker != nil && c.tracker.IsTracked(c.Player.ID, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Aim resolves what the player is looking at within maxRange
func (c *Context) Aim(maxRange float64) (entities.Location, world.ObjectID, bool) {
	loc, id, hit := c.World.AimTarget(c.Player.ID, maxRange)
	if hit && c.tracker != nil && c.tracker.IsTracked(c.Player.ID, id) {
		return loc, "", false
	}
	return loc, id, hit
}

// Particles spawns particles when cosmetics are enabled
func (c *Context) Particles(at entities.Location, particle string, count int) {
	if !c.particles || particle == "" {
		return
	}
	c.World.SpawnParticles(at, particle, count)
}

// Message sends chat lines to the invoking player
func (c *Context) Message(lines ...string) {
	c.World.SendMessage(c.Player.ID, lines...)
}
