package world

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/uuid"
)

const (
	defaultMaxHealth = 20.0
	defaultFood      = 20
	spawnedHealth    = 20.0
	itemKind         = "item"
)

// Object is a live object tracked by the in-memory world
type Object struct {
	ID       ObjectID
	Kind     string
	Location entities.Location
	OwnerID  string
	Item     *entities.Item
	Health   float64
}

// PlayerState is the in-memory view of one player
type PlayerState struct {
	entities.Player
	Online     bool
	Mode       entities.GameMode
	Location   entities.Location
	Sneaking   bool
	Helmet     *entities.Item
	Health     float64
	MaxHealth  float64
	Food       int
	Experience int
	Effects    map[EffectType]StatusEffect
	Messages   []string
	Sounds     []string
	AimAt      ObjectID
}

// RemovalHook observes objects leaving the world
type RemovalHook func(obj Object, cause RemovalCause)

// MessageHook observes lines sent to a player
type MessageHook func(playerID, line string)

// Memory is a headless world used by the simulation host and by tests
type Memory struct {
	mu       sync.RWMutex
	ids      uuid.Generator
	worlds   map[string]bool
	spawn    entities.Location
	players  map[string]*PlayerState
	objects  map[ObjectID]*Object
	onRemove []RemovalHook
	onMsg    []MessageHook
	chat     []string
}

// MemoryConfig configures the in-memory world
type MemoryConfig struct {
	Worlds       []string
	DefaultSpawn entities.Location
	IDs          uuid.Generator
}

// NewMemory creates an in-memory world
func NewMemory(cfg *MemoryConfig) *Memory {
	m := &Memory{
		worlds:  make(map[string]bool),
		players: make(map[string]*PlayerState),
		objects: make(map[ObjectID]*Object),
	}
	if cfg != nil {
		for _, w := range cfg.Worlds {
			m.worlds[w] = true
		}
		m.spawn = cfg.DefaultSpawn
		m.ids = cfg.IDs
	}
	if m.ids == nil {
		m.ids = uuid.NewGoogleUUIDGenerator()
	}
	if m.spawn.World == "" {
		m.spawn = entities.Location{World: "world", Y: 64}
	}
	m.worlds[m.spawn.World] = true
	return m
}

// OnRemoved registers a hook fired after an object leaves the world
func (m *Memory) OnRemoved(hook RemovalHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemove = append(m.onRemove, hook)
}

// OnMessage registers a hook fired for every player message
func (m *Memory) OnMessage(hook MessageHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMsg = append(m.onMsg, hook)
}

// AddWorld makes a world name resolvable
func (m *Memory) AddWorld(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[name] = true
}

// RemoveWorld unloads a world
func (m *Memory) RemoveWorld(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.worlds, name)
}

// Join brings a player online, creating them on first join
func (m *Memory) Join(player entities.Player, at entities.Location) *PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[player.ID]
	if !ok {
		p = &PlayerState{
			Player:    player,
			Mode:      entities.GameModeSurvival,
			Location:  at,
			Health:    defaultMaxHealth,
			MaxHealth: defaultMaxHealth,
			Food:      defaultFood,
			Effects:   make(map[EffectType]StatusEffect),
		}
		m.players[player.ID] = p
	}
	p.Name = player.Name
	p.Online = true
	return p
}

// Quit takes a player offline. Their state is kept like a saved player file.
func (m *Memory) Quit(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[playerID]; ok {
		p.Online = false
		p.Sneaking = false
	}
}

// State returns a copy of a player's state
func (m *Memory) State(playerID string) (PlayerState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[playerID]
	if !ok {
		return PlayerState{}, false
	}
	out := *p
	out.Effects = make(map[EffectType]StatusEffect, len(p.Effects))
	for k, v := range p.Effects {
		out.Effects[k] = v
	}
	out.Messages = append([]string(nil), p.Messages...)
	out.Sounds = append([]string(nil), p.Sounds...)
	return out, true
}

// SetSneaking sets the modifier posture
func (m *Memory) SetSneaking(playerID string, sneaking bool) {
	m.withPlayer(playerID, func(p *PlayerState) { p.Sneaking = sneaking })
}

// SetHelmet equips an item in the head slot
func (m *Memory) SetHelmet(playerID string, item *entities.Item) {
	m.withPlayer(playerID, func(p *PlayerState) { p.Helmet = item })
}

// SetAim points a player at an object
func (m *Memory) SetAim(playerID string, id ObjectID) {
	m.withPlayer(playerID, func(p *PlayerState) { p.AimAt = id })
}

// Move sets a player's location
func (m *Memory) Move(playerID string, to entities.Location) {
	m.withPlayer(playerID, func(p *PlayerState) { p.Location = to })
}

// Destroy removes an object through the world itself (fire, lava, despawn)
func (m *Memory) Destroy(id ObjectID) bool {
	return m.remove(id, RemovedByDestruction)
}

// PickUp removes an item as if a player collected it
func (m *Memory) PickUp(id ObjectID) bool {
	return m.remove(id, RemovedByPickup)
}

// Objects returns a snapshot of live objects sorted by id
func (m *Memory) Objects() []Object {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Object, 0, len(m.objects))
	for _, o := range m.objects {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Object returns one live object
func (m *Memory) Object(id ObjectID) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// ChatLog returns broadcast lines
func (m *Memory) ChatLog() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.chat...)
}

func (m *Memory) withPlayer(playerID string, fn func(p *PlayerState)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return false
	}
	fn(p)
	return true
}

func (m *Memory) onlinePlayer(playerID string) (*PlayerState, error) {
	p, ok := m.players[playerID]
	if !ok || !p.Online {
		return nil, fmt.Errorf("player %s is not online", playerID)
	}
	return p, nil
}

func (m *Memory) remove(id ObjectID, cause RemovalCause) bool {
	m.mu.Lock()
	obj, ok := m.objects[id]
	if ok {
		delete(m.objects, id)
	}
	hooks := append([]RemovalHook(nil), m.onRemove...)
	m.mu.Unlock()

	if !ok {
		return false
	}
	for _, hook := range hooks {
		hook(*obj, cause)
	}
	return true
}

// IsOnline implements Surface
func (m *Memory) IsOnline(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	return ok && p.Online
}

// Player implements Surface
func (m *Memory) Player(playerID string) (entities.Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return entities.Player{}, false
	}
	return p.Player, true
}

// PlayerLocation implements Surface
func (m *Memory) PlayerLocation(playerID string) (entities.Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return entities.Location{}, false
	}
	return p.Location, true
}

// GameMode implements Surface
func (m *Memory) GameMode(playerID string) entities.GameMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[playerID]; ok {
		return p.Mode
	}
	return ""
}

// SetGameMode implements Surface
func (m *Memory) SetGameMode(playerID string, mode entities.GameMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.onlinePlayer(playerID)
	if err != nil {
		return err
	}
	p.Mode = mode
	return nil
}

// IsSneaking implements Surface
func (m *Memory) IsSneaking(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	return ok && p.Sneaking
}

// Helmet implements Surface
func (m *Memory) Helmet(playerID string) *entities.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[playerID]; ok {
		return p.Helmet
	}
	return nil
}

// Teleport implements Surface
func (m *Memory) Teleport(playerID string, to entities.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.onlinePlayer(playerID)
	if err != nil {
		return err
	}
	if !m.worlds[to.World] {
		return fmt.Errorf("world %q is not loaded", to.World)
	}
	p.Location = to
	return nil
}

// RestoreVitals implements Surface
func (m *Memory) RestoreVitals(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.onlinePlayer(playerID)
	if err != nil {
		return err
	}
	p.Health = p.MaxHealth
	p.Food = defaultFood
	return nil
}

// Heal implements Surface and returns the new health
func (m *Memory) Heal(playerID string, amount float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return 0
	}
	p.Health = math.Min(p.MaxHealth, p.Health+amount)
	return p.Health
}

// ApplyEffect implements Surface
func (m *Memory) ApplyEffect(playerID string, effect StatusEffect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.onlinePlayer(playerID)
	if err != nil {
		return err
	}
	p.Effects[effect.Type] = effect
	return nil
}

// RemoveEffects implements Surface
func (m *Memory) RemoveEffects(playerID string, types ...EffectType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.onlinePlayer(playerID)
	if err != nil {
		return err
	}
	for _, t := range types {
		delete(p.Effects, t)
	}
	return nil
}

// GiveExperience implements Surface
func (m *Memory) GiveExperience(playerID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.onlinePlayer(playerID)
	if err != nil {
		return err
	}
	p.Experience += amount
	return nil
}

// SendMessage implements Surface. Messages to offline players are dropped.
func (m *Memory) SendMessage(playerID string, lines ...string) {
	m.mu.Lock()
	p, ok := m.players[playerID]
	if !ok || !p.Online {
		m.mu.Unlock()
		return
	}
	p.Messages = append(p.Messages, lines...)
	hooks := append([]MessageHook(nil), m.onMsg...)
	m.mu.Unlock()

	for _, line := range lines {
		for _, hook := range hooks {
			hook(playerID, line)
		}
	}
}

// ShowActionBar implements Surface; the headless world records it as a message
func (m *Memory) ShowActionBar(playerID string, text string) {
	m.SendMessage(playerID, text)
}

// PlaySound implements Surface
func (m *Memory) PlaySound(playerID string, sound string) {
	m.withPlayer(playerID, func(p *PlayerState) { p.Sounds = append(p.Sounds, sound) })
}

// SpawnParticles implements Surface
func (m *Memory) SpawnParticles(entities.Location, string, int) {}

// Broadcast implements Surface
func (m *Memory) Broadcast(message string) {
	m.mu.Lock()
	m.chat = append(m.chat, message)
	var online []string
	for id, p := range m.players {
		if p.Online {
			online = append(online, id)
		}
	}
	m.mu.Unlock()

	sort.Strings(online)
	for _, id := range online {
		m.SendMessage(id, message)
	}
}

// Spawn implements Surface
func (m *Memory) Spawn(kind string, at entities.Location, ownerID string) (ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.worlds[at.World] {
		return "", fmt.Errorf("world %q is not loaded", at.World)
	}
	id := ObjectID(m.ids.New())
	m.objects[id] = &Object{ID: id, Kind: kind, Location: at, OwnerID: ownerID, Health: spawnedHealth}
	return id, nil
}

// DropItem implements Surface
func (m *Memory) DropItem(at entities.Location, item entities.Item) (ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.worlds[at.World] {
		return "", fmt.Errorf("world %q is not loaded", at.World)
	}
	id := ObjectID(m.ids.New())
	copied := item
	m.objects[id] = &Object{ID: id, Kind: itemKind, Location: at, Item: &copied}
	return id, nil
}

// Despawn implements Surface
func (m *Memory) Despawn(id ObjectID) bool {
	return m.remove(id, RemovedByCore)
}

// IsValid implements Surface
func (m *Memory) IsValid(id ObjectID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok
}

// ObjectLocation implements Surface
func (m *Memory) ObjectLocation(id ObjectID) (entities.Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[id]
	if !ok {
		return entities.Location{}, false
	}
	return o.Location, true
}

// NearbyObjects implements Surface
func (m *Memory) NearbyObjects(at entities.Location, radius float64) []ObjectID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ObjectID
	for id, o := range m.objects {
		d := at.DistanceSquared(o.Location)
		if d >= 0 && d <= radius*radius {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AimTarget implements Surface. The explicit aim wins; otherwise the nearest
// non-item object within range. The returned location is always set.
func (m *Memory) AimTarget(playerID string, maxRange float64) (entities.Location, ObjectID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[playerID]
	if !ok {
		return entities.Location{}, "", false
	}
	if o, ok := m.objects[p.AimAt]; ok {
		d := p.Location.DistanceSquared(o.Location)
		if d >= 0 && d <= maxRange*maxRange {
			return o.Location, o.ID, true
		}
	}

	var best *Object
	bestDist := math.MaxFloat64
	for _, o := range m.objects {
		if o.Kind == itemKind || o.OwnerID == playerID {
			continue
		}
		d := p.Location.DistanceSquared(o.Location)
		if d < 0 || d > maxRange*maxRange {
			continue
		}
		if d < bestDist || (d == bestDist && o.ID < best.ID) {
			best, bestDist = o, d
		}
	}
	if best == nil {
		return p.Location.Add(0, 0, maxRange), "", false
	}
	return best.Location, best.ID, true
}

// Damage implements Surface; objects at zero health are destroyed
func (m *Memory) Damage(id ObjectID, amount float64, _ string) error {
	m.mu.Lock()
	o, ok := m.objects[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("object %s not found", id)
	}
	if o.Kind == itemKind {
		m.mu.Unlock()
		return fmt.Errorf("object %s is an item and cannot be damaged", id)
	}
	o.Health -= amount
	dead := o.Health <= 0
	m.mu.Unlock()

	if dead {
		m.remove(id, RemovedByDestruction)
	}
	return nil
}

// WorldExists implements Surface
func (m *Memory) WorldExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.worlds[name]
}

// DefaultSpawn implements Surface
func (m *Memory) DefaultSpawn() entities.Location {
	return m.spawn
}

var _ Surface = (*Memory)(nil)
