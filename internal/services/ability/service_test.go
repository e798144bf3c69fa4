package ability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/headsteal/internal/catalog"
	"github.com/KirkDiggler/headsteal/internal/entities"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/permissions"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/world"
)

type testAbility struct {
	key   string
	calls atomic.Int32
	run   func(ac *Context) error
}

func (a *testAbility) Key() string { return a.key }

func (a *testAbility) Execute(_ context.Context, ac *Context) error {
	a.calls.Add(1)
	if a.run != nil {
		return a.run(ac)
	}
	return nil
}

type cosmeticAbility struct {
	testAbility
}

func (c *cosmeticAbility) Sound() string    { return "entity.wolf.howl" }
func (c *cosmeticAbility) Particle() string { return "smoke" }

type fakeTracker struct {
	released int
	tracked  map[world.ObjectID]string
}

func (f *fakeTracker) Track(playerID string, id world.ObjectID, _ time.Duration) {
	if f.tracked == nil {
		f.tracked = make(map[world.ObjectID]string)
	}
	f.tracked[id] = playerID
}

func (f *fakeTracker) IsTracked(playerID string, id world.ObjectID) bool {
	return f.tracked[id] == playerID
}

func (f *fakeTracker) ReleaseEverything() { f.released++ }

type fakeCache struct{ resets int }

func (f *fakeCache) ResetAll() { f.resets++ }

type fixture struct {
	svc     Service
	world   *world.Memory
	perms   *permissions.Static
	clock   *scheduler.ManualClock
	tracker *fakeTracker
}

func newFixture(t *testing.T, mutate func(cfg *ServiceConfig)) *fixture {
	t.Helper()

	heads, err := catalog.New(nil)
	require.NoError(t, err)
	heads.Replace([]*entities.HeadRecord{
		{
			Key:     "zombie",
			Ability: &entities.AbilityDescriptor{Type: "strike", ActivationSlot: entities.SlotLeftClick},
		},
		{
			Key: "dragon",
			BossAbilities: []*entities.AbilityDescriptor{
				{Type: "breath", ActivationSlot: entities.SlotLeftClick},
				{Type: "gust", ActivationSlot: entities.SlotDoubleLeftClick},
			},
		},
	})

	w := world.NewMemory(nil)
	w.Join(entities.Player{ID: "p1", Name: "Alex"}, w.DefaultSpawn())

	f := &fixture{
		world:   w,
		perms:   permissions.NewDefault(),
		clock:   scheduler.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		tracker: &fakeTracker{},
	}

	cfg := &ServiceConfig{
		Catalog:        heads,
		Permissions:    f.perms,
		World:          w,
		Tracker:        f.tracker,
		Clock:          f.clock,
		MaxConcurrent:  10,
		GlobalCooldown: 30 * time.Second,
		Sounds:         true,
		Particles:      true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	f.svc = NewService(cfg)
	f.svc.SetReady(true)
	return f
}

func (f *fixture) messages(t *testing.T) []string {
	t.Helper()
	state, ok := f.world.State("p1")
	require.True(t, ok)
	return state.Messages
}

func strike() *entities.AbilityDescriptor {
	return &entities.AbilityDescriptor{Type: "strike", ActivationSlot: entities.SlotLeftClick}
}

func TestExecuteRegular_Success(t *testing.T) {
	f := newFixture(t, nil)
	a := &cosmeticAbility{testAbility{key: "strike"}}
	f.svc.Register(a)

	outcome, err := f.svc.ExecuteRegular(context.Background(), "p1", strike())

	require.NoError(t, err)
	assert.Equal(t, OutcomeExecuted, outcome)
	assert.Equal(t, int32(1), a.calls.Load())
	assert.Contains(t, f.messages(t), "§aStrike activated")

	state, _ := f.world.State("p1")
	assert.Equal(t, []string{"entity.wolf.howl"}, state.Sounds)
	assert.Equal(t, 0, f.svc.ActiveCount())
	assert.Equal(t, int64(1), f.svc.Stats().Executed)
}

func TestExecuteRegular_Gates(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		desc     *entities.AbilityDescriptor
		wantCode apperr.Code
	}{
		{
			name:     "not ready",
			setup:    func(f *fixture) { f.svc.SetReady(false) },
			desc:     strike(),
			wantCode: apperr.CodeUnavailable,
		},
		{
			name:     "missing permission",
			setup:    func(f *fixture) { f.perms.Deny("p1", permissions.AbilityUse) },
			desc:     strike(),
			wantCode: apperr.CodePermissionDenied,
		},
		{
			name:     "unknown type",
			desc:     &entities.AbilityDescriptor{Type: "nope", ActivationSlot: entities.SlotLeftClick},
			wantCode: apperr.CodeNotFound,
		},
		{
			name:     "nil descriptor",
			wantCode: apperr.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			a := &testAbility{key: "strike"}
			f.svc.Register(a)
			if tt.setup != nil {
				tt.setup(f)
			}

			outcome, err := f.svc.ExecuteRegular(context.Background(), "p1", tt.desc)

			assert.Equal(t, OutcomeRejected, outcome)
			assert.Equal(t, tt.wantCode, apperr.GetCode(err))
			assert.Zero(t, a.calls.Load())
			assert.Zero(t, f.svc.ActiveCount())
		})
	}
}

func TestExecuteRegular_FailureIsContained(t *testing.T) {
	tests := []struct {
		name        string
		run         func(ac *Context) error
		wantMessage string
	}{
		{
			name:        "returns error",
			run:         func(*Context) error { return errors.New("boom") },
			wantMessage: "§cSomething went wrong using Strike.",
		},
		{
			name:        "panics",
			run:         func(*Context) error { panic("kaboom") },
			wantMessage: "§cSomething went wrong using Strike.",
		},
		{
			name:        "nothing to target",
			run:         func(*Context) error { return apperr.FailedPreconditionf("No target in range") },
			wantMessage: "§cNo target in range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.svc.Register(&testAbility{key: "strike", run: tt.run})

			outcome, err := f.svc.ExecuteRegular(context.Background(), "p1", strike())

			assert.Equal(t, OutcomeFailed, outcome)
			assert.Equal(t, apperr.CodeInternal, apperr.GetCode(err))
			assert.Contains(t, f.messages(t), tt.wantMessage)
			assert.Zero(t, f.svc.ActiveCount())

			// The engine keeps working after a failure
			f.svc.Register(&testAbility{key: "strike"})
			outcome, err = f.svc.ExecuteRegular(context.Background(), "p1", strike())
			require.NoError(t, err)
			assert.Equal(t, OutcomeExecuted, outcome)
		})
	}
}

func TestExecuteRegular_ConcurrencyCeiling(t *testing.T) {
	const (
		ceiling = 3
		callers = 12
	)
	f := newFixture(t, func(cfg *ServiceConfig) { cfg.MaxConcurrent = ceiling })

	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
		admitted    sync.WaitGroup
	)
	gate := make(chan struct{})
	admitted.Add(ceiling)

	f.svc.Register(&testAbility{key: "strike", run: func(*Context) error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		admitted.Done()
		<-gate
		inFlight.Add(-1)
		// Half the admitted calls fail; the counter must still drain
		if n%2 == 0 {
			return errors.New("flaky")
		}
		return nil
	}})

	var (
		wg       sync.WaitGroup
		rejected atomic.Int32
	)

	// Fill the ceiling first so the remaining callers deterministically hit it
	for i := 0; i < ceiling; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.ExecuteRegular(context.Background(), "p1", strike())
		}()
	}
	admitted.Wait()
	assert.Equal(t, ceiling, f.svc.ActiveCount())

	for i := 0; i < callers-ceiling; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.svc.ExecuteRegular(context.Background(), "p1", strike())
			if outcome == OutcomeRejected && apperr.IsResourceExhausted(err) {
				rejected.Add(1)
			}
		}()
	}

	require.Eventually(t, func() bool {
		return rejected.Load() == callers-ceiling
	}, 2*time.Second, 5*time.Millisecond)

	close(gate)
	wg.Wait()

	assert.LessOrEqual(t, maxInFlight.Load(), int32(ceiling))
	assert.Equal(t, int32(callers-ceiling), rejected.Load())
	assert.Zero(t, f.svc.ActiveCount())
	assert.Contains(t, f.messages(t), "§cSystem busy, try again in a moment.")
}

func TestExecuteRegular_Cooldowns(t *testing.T) {
	f := newFixture(t, func(cfg *ServiceConfig) {
		cfg.UseCooldowns = true
		cfg.CooldownMultiplier = 0.5
	})
	f.svc.Register(&testAbility{key: "strike"})
	f.svc.Register(&testAbility{key: "howl"})
	ctx := context.Background()

	_, err := f.svc.ExecuteRegular(ctx, "p1", strike())
	require.NoError(t, err)

	outcome, err := f.svc.ExecuteRegular(ctx, "p1", strike())
	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, apperr.CodeFailedPrecondition, apperr.GetCode(err))
	assert.Equal(t, 15*time.Second, apperr.GetMeta(err)["remaining"])
	assert.Equal(t, 15*time.Second, f.svc.CooldownRemaining("p1", "strike"))

	f.clock.Advance(15 * time.Second)
	outcome, err = f.svc.ExecuteRegular(ctx, "p1", strike())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExecuted, outcome)

	// An ability-declared cooldown wins over the global one
	howl := &entities.AbilityDescriptor{
		Type:           "howl",
		ActivationSlot: entities.SlotLeftClick,
		Params:         entities.AbilityParams{"cooldown": 3},
	}
	_, err = f.svc.ExecuteRegular(ctx, "p1", howl)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, f.svc.CooldownRemaining("p1", "howl"))

	f.clock.Advance(20 * time.Second)
	assert.Equal(t, 2, f.svc.PurgeExpired())
}

func TestExecuteRegular_ReloadClearsCooldowns(t *testing.T) {
	f := newFixture(t, func(cfg *ServiceConfig) { cfg.UseCooldowns = true })
	f.svc.Register(&testAbility{key: "strike"})
	cache := &fakeCache{}
	f.svc.AddCache(cache)

	_, err := f.svc.ExecuteRegular(context.Background(), "p1", strike())
	require.NoError(t, err)
	require.True(t, f.svc.CooldownRemaining("p1", "strike") > 0)

	f.svc.Reload()

	assert.Zero(t, f.svc.CooldownRemaining("p1", "strike"))
	assert.Equal(t, 1, cache.resets)
	assert.Equal(t, []string{"strike"}, f.svc.RegisteredTypes(), "registry survives reload")
}

func TestExecuteBossSlot(t *testing.T) {
	f := newFixture(t, func(cfg *ServiceConfig) { cfg.UseCooldowns = true })
	breath := &testAbility{key: "breath"}
	f.svc.Register(breath)
	ctx := context.Background()

	outcome, err := f.svc.ExecuteBossSlot(ctx, "p1", "dragon", entities.SlotLeftClick)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExecuted, outcome)
	assert.Contains(t, f.messages(t), "§6Boss ability used: Breath")

	// Boss abilities have no cooldown
	outcome, err = f.svc.ExecuteBossSlot(ctx, "p1", "dragon", entities.SlotLeftClick)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExecuted, outcome)
	assert.Equal(t, int32(2), breath.calls.Load())

	outcome, err = f.svc.ExecuteBossSlot(ctx, "p1", "dragon", entities.SlotShiftLeftClick)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoOp, outcome)

	outcome, err = f.svc.ExecuteBossSlot(ctx, "p1", "unicorn", entities.SlotLeftClick)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.True(t, apperr.IsNotFound(err))

	f.perms.Deny("p1", permissions.AbilityBoss)
	outcome, err = f.svc.ExecuteBossSlot(ctx, "p1", "dragon", entities.SlotLeftClick)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestActiveAbilityTracking(t *testing.T) {
	f := newFixture(t, nil)
	var seen string
	var svc Service
	f.svc.Register(&testAbility{key: "strike", run: func(ac *Context) error {
		seen, _ = svc.ActiveAbility(ac.Player.ID)
		return nil
	}})
	svc = f.svc

	_, err := f.svc.ExecuteRegular(context.Background(), "p1", strike())
	require.NoError(t, err)

	assert.Equal(t, "strike", seen)
	_, ok := f.svc.ActiveAbility("p1")
	assert.False(t, ok)
}

func TestContext_TargetsSkipOwnSummons(t *testing.T) {
	f := newFixture(t, nil)
	at := f.world.DefaultSpawn()
	own, err := f.world.Spawn("wolf", at.Add(1, 0, 0), "p1")
	require.NoError(t, err)
	enemy, err := f.world.Spawn("zombie", at.Add(2, 0, 0), "")
	require.NoError(t, err)

	var targets []world.ObjectID
	f.svc.Register(&testAbility{key: "strike", run: func(ac *Context) error {
		ac.Track(own, 0)
		targets = ac.Targets(5)
		return nil
	}})

	_, err = f.svc.ExecuteRegular(context.Background(), "p1", strike())
	require.NoError(t, err)
	assert.Equal(t, []world.ObjectID{enemy}, targets)
}

func TestCleanup_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	cache := &fakeCache{}
	f.svc.AddCache(cache)

	f.svc.Cleanup()
	f.svc.Cleanup()

	assert.Equal(t, 2, f.tracker.released)
	assert.Equal(t, 2, cache.resets)
	assert.Zero(t, f.svc.ActiveCount())
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := NewRegistry()
	first := &testAbility{key: "strike"}
	second := &testAbility{key: "strike"}

	r.Register(first)
	r.Register(second)

	got, ok := r.Get("strike")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Len())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Dragon Breath", DisplayName("dragon_breath"))
	assert.Equal(t, "Lifesteal", DisplayName("lifesteal"))
}
