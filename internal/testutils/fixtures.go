package testutils

import (
	"time"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/scheduler"
	"github.com/KirkDiggler/headsteal/internal/uuid"
	"github.com/KirkDiggler/headsteal/internal/world"
)

// Epoch is the fixed start time of every manual test clock
var Epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// NewTestScheduler creates a scheduler driven by a manual clock at Epoch
func NewTestScheduler() (*scheduler.Scheduler, *scheduler.ManualClock) {
	clock := scheduler.NewManualClock(Epoch)
	return scheduler.New(&scheduler.Config{Clock: clock}), clock
}

// NewTestWorld creates an in-memory world with deterministic object ids.
// "world" is always loaded.
func NewTestWorld(worlds ...string) *world.Memory {
	return world.NewMemory(&world.MemoryConfig{
		Worlds:       worlds,
		DefaultSpawn: entities.Location{World: "world", Y: 64},
		IDs:          uuid.NewSequentialGenerator("obj"),
	})
}

// CreateTestPlayer creates a player identity
func CreateTestPlayer(id, name string) entities.Player {
	return entities.Player{ID: id, Name: name}
}

// CreateTestLocation creates a location in a world
func CreateTestLocation(worldName string, x, y, z float64) entities.Location {
	return entities.Location{World: worldName, X: x, Y: y, Z: z}
}

// CreateTestRecord creates a boxed BanBox record
func CreateTestRecord(playerID, name string, at entities.Location, bannedAt time.Time) *entities.BanBoxRecord {
	return &entities.BanBoxRecord{
		PlayerID:      playerID,
		PlayerName:    name,
		DeathLocation: at,
		BannedAt:      bannedAt,
		TimerDays:     7,
		TokenID:       "token-" + playerID,
		Status:        entities.BanBoxStatusBoxed,
	}
}

// CreateTestHead creates a regular head with one ability
func CreateTestHead(key, abilityType string, slot entities.ActivationSlot) *entities.HeadRecord {
	return &entities.HeadRecord{
		Key:         key,
		DisplayName: key + " head",
		Category:    "test",
		Ability: &entities.AbilityDescriptor{
			Type:           abilityType,
			ActivationSlot: slot,
			Params:         entities.AbilityParams{},
		},
	}
}

// CreateTestBossHead creates a boss head with an ability per slot
func CreateTestBossHead(key string, slots map[entities.ActivationSlot]string) *entities.HeadRecord {
	head := &entities.HeadRecord{Key: key, DisplayName: key + " head", Category: "boss"}
	for _, slot := range []entities.ActivationSlot{
		entities.SlotLeftClick, entities.SlotShiftLeftClick, entities.SlotDoubleLeftClick,
	} {
		if abilityType, ok := slots[slot]; ok {
			head.BossAbilities = append(head.BossAbilities, &entities.AbilityDescriptor{
				Type:           abilityType,
				ActivationSlot: slot,
				Params:         entities.AbilityParams{},
			})
		}
	}
	return head
}
