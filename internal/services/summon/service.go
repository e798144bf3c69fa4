// Package summon bounds how many world objects each player's abilities keep alive.
package summon

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/world"
)

const defaultMaxPerPlayer = 10

type entry struct {
	id     world.ObjectID
	expiry *scheduler.Task
}

func (e *entry) cancel() {
	if e.expiry != nil {
		e.expiry.Cancel()
	}
}

// Manager tracks summoned objects per player in insertion order. Mutations are
// expected on the main loop; the mutex guards reads from other goroutines.
type Manager struct {
	world     world.Surface
	scheduler *scheduler.Scheduler
	max       int

	mu      sync.Mutex
	players map[string][]*entry
	owners  map[world.ObjectID]string
}

// Config holds configuration for the summon manager
type Config struct {
	World        world.Surface
	Scheduler    *scheduler.Scheduler
	MaxPerPlayer int
}

// NewManager creates a summon manager
func NewManager(cfg *Config) *Manager {
	if cfg == nil || cfg.World == nil {
		panic("world surface is required")
	}
	if cfg.Scheduler == nil {
		panic("scheduler is required")
	}

	m := &Manager{
		world:     cfg.World,
		scheduler: cfg.Scheduler,
		max:       cfg.MaxPerPlayer,
		players:   make(map[string][]*entry),
		owners:    make(map[world.ObjectID]string),
	}
	if m.max <= 0 {
		m.max = defaultMaxPerPlayer
	}
	return m
}

// Track adds an object to the player's set, evicting the oldest entries past
// the cap. A positive ttl despawns the object when it runs out.
func (m *Manager) Track(playerID string, id world.ObjectID, ttl time.Duration) {
	m.mu.Lock()
	if _, exists := m.owners[id]; exists {
		m.mu.Unlock()
		return
	}

	e := &entry{id: id}
	m.players[playerID] = append(m.players[playerID], e)
	m.owners[id] = playerID

	var evicted []*entry
	if over := len(m.players[playerID]) - m.max; over > 0 {
		set := m.players[playerID]
		evicted = append(evicted, set[:over]...)
		m.players[playerID] = append([]*entry(nil), set[over:]...)
		for _, old := range evicted {
			delete(m.owners, old.id)
		}
	}
	m.mu.Unlock()

	if ttl > 0 {
		e.expiry = m.scheduler.After(ttl, func() {
			m.expire(playerID, id)
		})
	}

	for _, old := range evicted {
		old.cancel()
		m.world.Despawn(old.id)
	}
	if len(evicted) > 0 {
		logger.ForPlayer(playerID).WithFields(logrus.Fields{
			"evicted": len(evicted),
			"cap":     m.max,
		}).Debug("summon cap reached, evicted oldest")
	}
}

func (m *Manager) expire(playerID string, id world.ObjectID) {
	if m.remove(playerID, id) {
		m.world.Despawn(id)
	}
}

func (m *Manager) remove(playerID string, id world.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.players[playerID]
	for i, e := range set {
		if e.id != id {
			continue
		}
		m.players[playerID] = append(set[:i:i], set[i+1:]...)
		if len(m.players[playerID]) == 0 {
			delete(m.players, playerID)
		}
		delete(m.owners, id)
		return true
	}
	return false
}

// IsTracked reports whether the object belongs to the player's set
func (m *Manager) IsTracked(playerID string, id world.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[id] == playerID && playerID != ""
}

// Sweep drops entries whose objects are gone and players with nothing left
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for playerID, set := range m.players {
		kept := set[:0]
		for _, e := range set {
			if m.world.IsValid(e.id) {
				kept = append(kept, e)
				continue
			}
			e.cancel()
			delete(m.owners, e.id)
			removed++
		}
		if len(kept) == 0 {
			delete(m.players, playerID)
		} else {
			m.players[playerID] = kept
		}
	}
	return removed
}

// ReleaseAll despawns every object tracked for one player
func (m *Manager) ReleaseAll(playerID string) int {
	m.mu.Lock()
	set := m.players[playerID]
	delete(m.players, playerID)
	for _, e := range set {
		delete(m.owners, e.id)
	}
	m.mu.Unlock()

	for _, e := range set {
		e.cancel()
		m.world.Despawn(e.id)
	}
	return len(set)
}

// ReleaseEverything despawns every tracked object
func (m *Manager) ReleaseEverything() {
	m.mu.Lock()
	all := m.players
	m.players = make(map[string][]*entry)
	m.owners = make(map[world.ObjectID]string)
	m.mu.Unlock()

	total := 0
	for _, set := range all {
		for _, e := range set {
			e.cancel()
			m.world.Despawn(e.id)
			total++
		}
	}
	if total > 0 {
		logger.ForComponent("summon").WithField("released", total).Info("released all summoned objects")
	}
}

// Owned returns a player's objects, oldest first
func (m *Manager) Owned(playerID string) []world.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]world.ObjectID, 0, len(m.players[playerID]))
	for _, e := range m.players[playerID] {
		out = append(out, e.id)
	}
	return out
}

// Count returns how many objects a player has
func (m *Manager) Count(playerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players[playerID])
}

// Total returns how many objects are tracked overall
func (m *Manager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.owners)
}

// Players returns the ids with at least one tracked object
func (m *Manager) Players() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.players))
	for id := range m.players {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Listener releases a player's summons on disconnect and on entering a restricted world
type Listener struct {
	manager    *Manager
	restricted map[string]bool
}

// NewListener creates the summon event listener
func NewListener(manager *Manager, restrictedWorlds []string) *Listener {
	l := &Listener{manager: manager, restricted: make(map[string]bool, len(restrictedWorlds))}
	for _, w := range restrictedWorlds {
		l.restricted[w] = true
	}
	return l
}

func (l *Listener) ID() string    { return "summon" }
func (l *Listener) Priority() int { return events.PriorityCleanup }

// HandleEvent implements events.EventListener
func (l *Listener) HandleEvent(event events.Event) error {
	switch e := event.(type) {
	case *events.QuitEvent:
		l.manager.ReleaseAll(e.PlayerID)
	case *events.WorldChangeEvent:
		if l.restricted[e.To] {
			l.manager.ReleaseAll(e.PlayerID)
		}
	}
	return nil
}
