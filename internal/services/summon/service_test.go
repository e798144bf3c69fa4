package summon

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/uuid"
	"github.com/KirkDiggler/headsteal/internal/world"
)

type fixture struct {
	world   *world.Memory
	clock   *scheduler.ManualClock
	sched   *scheduler.Scheduler
	manager *Manager
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()
	clock := scheduler.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := scheduler.New(&scheduler.Config{Clock: clock})
	w := world.NewMemory(&world.MemoryConfig{IDs: uuid.NewSequentialGenerator("obj")})
	return &fixture{
		world:   w,
		clock:   clock,
		sched:   sched,
		manager: NewManager(&Config{World: w, Scheduler: sched, MaxPerPlayer: limit}),
	}
}

func (f *fixture) spawn(t *testing.T, owner string) world.ObjectID {
	t.Helper()
	id, err := f.world.Spawn("wolf", f.world.DefaultSpawn(), owner)
	require.NoError(t, err)
	return id
}

func TestTrack_CapEvictsOldestFirst(t *testing.T) {
	f := newFixture(t, 3)

	var ids []world.ObjectID
	for i := 0; i < 5; i++ {
		id := f.spawn(t, "p1")
		ids = append(ids, id)
		f.manager.Track("p1", id, 0)
		assert.LessOrEqual(t, f.manager.Count("p1"), 3)
	}

	assert.Equal(t, ids[2:], f.manager.Owned("p1"))
	assert.False(t, f.world.IsValid(ids[0]), "evicted objects are removed from the world")
	assert.False(t, f.world.IsValid(ids[1]))
	assert.True(t, f.world.IsValid(ids[2]))
}

func TestTrack_CapHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 20; run++ {
		limit := 1 + rng.Intn(6)
		f := newFixture(t, limit)

		var inserted []world.ObjectID
		for i := 0; i < 30; i++ {
			id := f.spawn(t, "p1")
			inserted = append(inserted, id)
			f.manager.Track("p1", id, 0)

			owned := f.manager.Owned("p1")
			require.LessOrEqual(t, len(owned), limit)

			// What remains is always the newest suffix of insertions
			start := len(inserted) - len(owned)
			require.Equal(t, inserted[start:], owned)
		}
	}
}

func TestTrack_DuplicateIsIgnored(t *testing.T) {
	f := newFixture(t, 3)
	id := f.spawn(t, "p1")

	f.manager.Track("p1", id, 0)
	f.manager.Track("p1", id, 0)

	assert.Equal(t, 1, f.manager.Count("p1"))
}

func TestTrack_ExpiryDespawns(t *testing.T) {
	f := newFixture(t, 3)
	short := f.spawn(t, "p1")
	forever := f.spawn(t, "p1")

	f.manager.Track("p1", short, 10*time.Second)
	f.manager.Track("p1", forever, 0)

	f.clock.Advance(10 * time.Second)
	f.sched.Tick()

	assert.False(t, f.world.IsValid(short))
	assert.Equal(t, []world.ObjectID{forever}, f.manager.Owned("p1"))
}

func TestTrack_EvictionCancelsExpiry(t *testing.T) {
	f := newFixture(t, 1)
	first := f.spawn(t, "p1")
	second := f.spawn(t, "p1")

	f.manager.Track("p1", first, time.Second)
	f.manager.Track("p1", second, 0)
	assert.Zero(t, f.sched.Pending())
}

func TestSweep_DropsInvalidAndEmptyPlayers(t *testing.T) {
	f := newFixture(t, 5)
	a := f.spawn(t, "p1")
	b := f.spawn(t, "p1")
	c := f.spawn(t, "p2")

	f.manager.Track("p1", a, 0)
	f.manager.Track("p1", b, time.Minute)
	f.manager.Track("p2", c, 0)

	f.world.Destroy(b)
	f.world.Destroy(c)

	assert.Equal(t, 2, f.manager.Sweep())
	assert.Equal(t, []string{"p1"}, f.manager.Players())
	assert.Equal(t, []world.ObjectID{a}, f.manager.Owned("p1"))
	assert.Zero(t, f.sched.Pending(), "swept entries cancel their expiry")
}

func TestReleaseAll(t *testing.T) {
	f := newFixture(t, 5)
	a := f.spawn(t, "p1")
	b := f.spawn(t, "p2")
	f.manager.Track("p1", a, time.Minute)
	f.manager.Track("p2", b, 0)

	assert.Equal(t, 1, f.manager.ReleaseAll("p1"))
	assert.False(t, f.world.IsValid(a))
	assert.True(t, f.world.IsValid(b))
	assert.Equal(t, 0, f.manager.ReleaseAll("p1"))

	f.manager.ReleaseEverything()
	f.manager.ReleaseEverything()
	assert.False(t, f.world.IsValid(b))
	assert.Zero(t, f.manager.Total())
}

func TestIsTracked(t *testing.T) {
	f := newFixture(t, 5)
	a := f.spawn(t, "p1")
	f.manager.Track("p1", a, 0)

	assert.True(t, f.manager.IsTracked("p1", a))
	assert.False(t, f.manager.IsTracked("p2", a))
	assert.False(t, f.manager.IsTracked("", "missing"))
}

func TestListener(t *testing.T) {
	f := newFixture(t, 5)
	bus := events.NewBus()
	bus.Subscribe(NewListener(f.manager, []string{"lobby"}), events.EventTypePlayerQuit, events.EventTypeWorldChange)

	a := f.spawn(t, "p1")
	f.manager.Track("p1", a, 0)

	require.NoError(t, bus.Emit(events.NewWorldChangeEvent("p1", "world", "nether")))
	assert.Equal(t, 1, f.manager.Count("p1"))

	require.NoError(t, bus.Emit(events.NewWorldChangeEvent("p1", "world", "lobby")))
	assert.Zero(t, f.manager.Count("p1"))

	b := f.spawn(t, "p1")
	f.manager.Track("p1", b, 0)
	require.NoError(t, bus.Emit(events.NewQuitEvent("p1")))
	assert.False(t, f.world.IsValid(b))
}
