package heads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/headsteal/internal/catalog"
	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/notify"
	mocknotify "github.com/KirkDiggler/headsteal/internal/notify/mock"
	mockheads "github.com/KirkDiggler/headsteal/internal/services/heads/mock"
	"github.com/KirkDiggler/headsteal/internal/testutils"
	"github.com/KirkDiggler/headsteal/internal/world"
)

type HeadsTestSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	roller   *mockheads.MockRoller
	world    *world.Memory
	catalog  *catalog.HeadCatalog
	notifier *mocknotify.MockNotifier
	cfg      ServiceConfig

	spot entities.Location
}

func (s *HeadsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.roller = mockheads.NewMockRoller(s.ctrl)
	s.world = testutils.NewTestWorld("world_nether")
	s.notifier = mocknotify.NewMockNotifier(s.ctrl)
	s.spot = testutils.CreateTestLocation("world", 4, 70, 4)

	var err error
	s.catalog, err = catalog.New(&catalog.Config{})
	s.Require().NoError(err)

	s.cfg = ServiceConfig{
		Heads:      s.catalog,
		World:      s.world,
		Notifier:   s.notifier,
		Roller:     s.roller,
		Enabled:    true,
		DropChance: 100,
	}
}

func (s *HeadsTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHeadsTestSuite(t *testing.T) {
	suite.Run(t, new(HeadsTestSuite))
}

func (s *HeadsTestSuite) svc() Service {
	return NewService(&s.cfg)
}

func (s *HeadsTestSuite) TestChargedCreeperDropsHead() {
	s.cfg.Broadcast = true
	var announced string
	s.notifier.EXPECT().
		Broadcast(gomock.Any(), notify.CategoryHeadDrop, gomock.Any()).
		Do(func(_ context.Context, _ notify.Category, message string) { announced = message })

	id, dropped := s.svc().HandleEntityDeath(s.ctx, "zombie", s.spot, "creeper", true)
	s.Require().True(dropped)

	obj, ok := s.world.Object(id)
	s.Require().True(ok)
	s.Equal(s.spot, obj.Location)
	key, _ := obj.Item.Tag(entities.TagHeadKey)
	s.Equal("zombie", key)

	s.Contains(announced, "A charged creeper killed a zombie")
}

func (s *HeadsTestSuite) TestUnchargedOrOtherKillersDropNothing() {
	svc := s.svc()

	_, dropped := svc.HandleEntityDeath(s.ctx, "zombie", s.spot, "creeper", false)
	s.False(dropped)
	_, dropped = svc.HandleEntityDeath(s.ctx, "zombie", s.spot, "skeleton", true)
	s.False(dropped)
	_, dropped = svc.HandleEntityDeath(s.ctx, "zombie", s.spot, "", false)
	s.False(dropped)

	s.Empty(s.world.Objects())
}

func (s *HeadsTestSuite) TestPlayersAndUnknownKindsAreSkipped() {
	svc := s.svc()

	_, dropped := svc.HandleEntityDeath(s.ctx, "player", s.spot, "creeper", true)
	s.False(dropped)
	_, dropped = svc.HandleEntityDeath(s.ctx, "villager", s.spot, "creeper", true)
	s.False(dropped)
	s.Empty(s.world.Objects())
}

func (s *HeadsTestSuite) TestWorldLists() {
	tests := []struct {
		name     string
		disabled []string
		enabled  []string
		world    string
		want     bool
	}{
		{name: "no lists", world: "world", want: true},
		{name: "disabled world", disabled: []string{"world_nether"}, world: "world_nether", want: false},
		{name: "other world still allowed", disabled: []string{"world_nether"}, world: "world", want: true},
		{name: "outside enabled list", enabled: []string{"world"}, world: "world_nether", want: false},
		{name: "inside enabled list", enabled: []string{"world"}, world: "world", want: true},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.cfg.DisabledWorlds = tt.disabled
			s.cfg.EnabledWorlds = tt.enabled

			at := s.spot
			at.World = tt.world
			_, dropped := s.svc().HandleEntityDeath(s.ctx, "skeleton", at, "creeper", true)
			s.Equal(tt.want, dropped)
		})
	}
}

func (s *HeadsTestSuite) TestDropChance() {
	s.cfg.DropChance = 30

	s.roller.EXPECT().Percent().Return(31)
	_, dropped := s.svc().HandleEntityDeath(s.ctx, "zombie", s.spot, "creeper", true)
	s.False(dropped)

	s.roller.EXPECT().Percent().Return(30)
	_, dropped = s.svc().HandleEntityDeath(s.ctx, "zombie", s.spot, "creeper", true)
	s.True(dropped)
}

func (s *HeadsTestSuite) TestZeroChanceNeverDrops() {
	s.cfg.DropChance = 0
	s.roller.EXPECT().Percent().Return(1)

	_, dropped := s.svc().HandleEntityDeath(s.ctx, "zombie", s.spot, "creeper", true)
	s.False(dropped)
}

func (s *HeadsTestSuite) TestDisabledDropsNothing() {
	s.cfg.Enabled = false
	s.cfg.Broadcast = true

	_, dropped := s.svc().HandleEntityDeath(s.ctx, "zombie", s.spot, "creeper", true)
	s.False(dropped)
	s.Empty(s.world.Objects())
}

func (s *HeadsTestSuite) TestQuietDropsDoNotBroadcast() {
	_, dropped := s.svc().HandleEntityDeath(s.ctx, "zombie", s.spot, "creeper", true)
	s.True(dropped)
}

func (s *HeadsTestSuite) TestListenerHandlesEntityDeath() {
	bus := events.NewBus()
	bus.Subscribe(NewListener(s.svc()), events.EventTypeEntityDeath)

	s.Require().NoError(bus.Emit(events.NewEntityDeathEvent("wolf", s.spot, "creeper", true)))
	s.Len(s.world.Objects(), 1)
}

func TestRandomRollerStaysInRange(t *testing.T) {
	r := NewRandomRoller()
	for i := 0; i < 500; i++ {
		p := r.Percent()
		assert.GreaterOrEqual(t, p, 1)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestNewService_PanicsWithoutDeps(t *testing.T) {
	assert.Panics(t, func() { NewService(nil) })
	assert.Panics(t, func() { NewService(&ServiceConfig{World: testutils.NewTestWorld()}) })
}
