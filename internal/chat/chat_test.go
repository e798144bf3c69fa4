package chat_test

import (
	"testing"

	"github.com/KirkDiggler/headsteal/internal/chat"
	"github.com/stretchr/testify/assert"
)

func TestLineAndStrip(t *testing.T) {
	line := chat.Error("Ability on cooldown for %d seconds!", 12)
	assert.Equal(t, "§cAbility on cooldown for 12 seconds!", line)
	assert.Equal(t, "Ability on cooldown for 12 seconds!", chat.Strip(line))

	mixed := string(chat.Gold) + "Boss Ability: " + string(chat.Yellow) + "Wing Gust"
	assert.Equal(t, "Boss Ability: Wing Gust", chat.Strip(mixed))
}
