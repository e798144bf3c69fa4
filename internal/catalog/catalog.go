// Package catalog is the Head Catalog: head records by key, reverse lookup from
// an item to its head, and the identity tokens dropped on BanBox entry.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/logger"
)

const headMaterial = "player_head"

//go:embed heads.yaml
var embeddedHeads []byte

// Catalog is the read-only head lookup consumed by the core
type Catalog interface {
	Get(key string) (*entities.HeadRecord, bool)
	KeyForItem(item *entities.Item) (string, bool)
	All() []*entities.HeadRecord
}

type catalogFile struct {
	Heads []*entities.HeadRecord `yaml:"heads"`
}

// HeadCatalog holds head records and is replaced wholesale on reload
type HeadCatalog struct {
	mu    sync.RWMutex
	path  string
	heads map[string]*entities.HeadRecord
}

// Config configures where the catalog is loaded from. An empty path uses the
// built-in catalog.
type Config struct {
	Path string
}

// New loads a head catalog
func New(cfg *Config) (*HeadCatalog, error) {
	c := &HeadCatalog{}
	if cfg != nil {
		c.path = cfg.Path
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog source. On error the previous records stay in place.
func (c *HeadCatalog) Reload() error {
	data := embeddedHeads
	if c.path != "" {
		raw, err := os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("read head catalog %s: %w", c.path, err)
		}
		data = raw
	}

	heads, err := Parse(data)
	if err != nil {
		return err
	}

	c.Replace(heads)
	logger.ForComponent("catalog").WithField("heads", len(heads)).Info("head catalog loaded")
	return nil
}

// Parse decodes and validates a YAML head catalog
func Parse(data []byte) ([]*entities.HeadRecord, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse head catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Heads))
	for _, head := range file.Heads {
		if head == nil {
			return nil, fmt.Errorf("parse head catalog: empty head entry")
		}
		if err := head.Validate(); err != nil {
			return nil, fmt.Errorf("parse head catalog: %w", err)
		}
		if seen[head.Key] {
			return nil, fmt.Errorf("parse head catalog: duplicate head %s", head.Key)
		}
		seen[head.Key] = true
	}
	return file.Heads, nil
}

// Replace swaps in a new set of records
func (c *HeadCatalog) Replace(heads []*entities.HeadRecord) {
	next := make(map[string]*entities.HeadRecord, len(heads))
	for _, h := range heads {
		next[h.Key] = h
	}

	c.mu.Lock()
	c.heads = next
	c.mu.Unlock()
}

// Get returns a head record by key
func (c *HeadCatalog) Get(key string) (*entities.HeadRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.heads[key]
	return h, ok
}

// KeyForItem returns the head key an item was created for
func (c *HeadCatalog) KeyForItem(item *entities.Item) (string, bool) {
	key, ok := item.Tag(entities.TagHeadKey)
	if !ok {
		return "", false
	}
	if _, known := c.Get(key); !known {
		return "", false
	}
	return key, true
}

// All returns every record sorted by key
func (c *HeadCatalog) All() []*entities.HeadRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*entities.HeadRecord, 0, len(c.heads))
	for _, h := range c.heads {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// HeadItem builds the wearable item for a head
func (c *HeadCatalog) HeadItem(key string) (entities.Item, error) {
	head, ok := c.Get(key)
	if !ok {
		return entities.Item{}, fmt.Errorf("unknown head %q", key)
	}

	item := entities.Item{
		Material:    headMaterial,
		DisplayName: head.DisplayName,
		Tags:        map[string]string{entities.TagHeadKey: head.Key},
	}
	if head.Ability != nil {
		item.Lore = append(item.Lore, fmt.Sprintf("Ability: %s (%s)", head.Ability.Type, head.Ability.ActivationSlot))
	}
	for _, d := range head.BossAbilities {
		item.Lore = append(item.Lore, fmt.Sprintf("%s: %s", d.ActivationSlot, d.Type))
	}
	return item, nil
}
