package catalog

import (
	"fmt"

	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/uuid"
)

// TokenProvider creates identity tokens and recognizes them when they come back
type TokenProvider interface {
	NewToken(player entities.Player) entities.Item
	TokenOwner(item *entities.Item) (playerID, tokenID string, ok bool)
}

// IdentityTokens tags a head item with the owner's id
type IdentityTokens struct {
	ids uuid.Generator
}

// NewIdentityTokens creates a token provider. A nil generator uses random UUIDs.
func NewIdentityTokens(ids uuid.Generator) *IdentityTokens {
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}
	return &IdentityTokens{ids: ids}
}

// NewToken builds the token item for a boxed player
func (t *IdentityTokens) NewToken(player entities.Player) entities.Item {
	return entities.Item{
		Material:    headMaterial,
		DisplayName: fmt.Sprintf("%s's Soul", player.Name),
		Lore: []string{
			"Right-click to revive this player",
			"Destroying it releases them",
		},
		Tags: map[string]string{
			entities.TagBanBoxOwner: player.ID,
			entities.TagTokenID:     t.ids.New(),
		},
	}
}

// TokenOwner reads the owner and token id from an item
func (t *IdentityTokens) TokenOwner(item *entities.Item) (string, string, bool) {
	owner, ok := item.Tag(entities.TagBanBoxOwner)
	if !ok {
		return "", "", false
	}
	tokenID, _ := item.Tag(entities.TagTokenID)
	return owner, tokenID, true
}
