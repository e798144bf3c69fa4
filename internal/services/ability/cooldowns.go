package ability

import (
	"sync"
	"time"
)

// cooldowns tracks when each player's ability type becomes usable again
type cooldowns struct {
	mu      sync.Mutex
	readyAt map[string]map[string]time.Time
}

func newCooldowns() *cooldowns {
	return &cooldowns{readyAt: make(map[string]map[string]time.Time)}
}

func (c *cooldowns) remaining(playerID, abilityType string, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.readyAt[playerID][abilityType]
	if !ok || !at.After(now) {
		return 0
	}
	return at.Sub(now)
}

func (c *cooldowns) start(playerID, abilityType string, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	per, ok := c.readyAt[playerID]
	if !ok {
		per = make(map[string]time.Time)
		c.readyAt[playerID] = per
	}
	per[abilityType] = until
}

func (c *cooldowns) purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for playerID, per := range c.readyAt {
		for abilityType, at := range per {
			if !at.After(now) {
				delete(per, abilityType)
				removed++
			}
		}
		if len(per) == 0 {
			delete(c.readyAt, playerID)
		}
	}
	return removed
}

func (c *cooldowns) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyAt = make(map[string]map[string]time.Time)
}
