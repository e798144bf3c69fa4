package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/headsteal/internal/chat"
	"github.com/KirkDiggler/headsteal/internal/entities"
	"github.com/KirkDiggler/headsteal/internal/world"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*discordgo.MessageSend
	err  error
}

func (f *fakeSender) ChannelMessageSendComplex(_ string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return &discordgo.Message{}, f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestDiscord_RelaysStrippedText(t *testing.T) {
	sender := &fakeSender{}
	d := NewDiscord(&DiscordConfig{Session: sender, ChannelID: "c1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	d.Broadcast(ctx, CategoryDeath, chat.Line(chat.DarkRed, "Alex was banished"))

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	msg := sender.sent[0]
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "Alex was banished", msg.Embeds[0].Description)
	assert.Equal(t, categoryColors[CategoryDeath], msg.Embeds[0].Color)
	assert.Equal(t, "BanBox death", msg.Embeds[0].Title)
}

func TestDiscord_TitlesFollowCategory(t *testing.T) {
	assert.Equal(t, "Head drop", title(CategoryHeadDrop))
	assert.Equal(t, "HeadSteal custom", title(Category("custom")))
}

func TestDiscord_SendErrorsDoNotStopRelay(t *testing.T) {
	sender := &fakeSender{err: errors.New("rate limited")}
	d := NewDiscord(&DiscordConfig{Session: sender, ChannelID: "c1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	d.Broadcast(ctx, CategoryRevive, "one")
	d.Broadcast(ctx, CategoryRevive, "two")

	require.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDiscord_DropsWhenQueueFull(t *testing.T) {
	sender := &fakeSender{}
	d := NewDiscord(&DiscordConfig{Session: sender, ChannelID: "c1", QueueSize: 1})

	d.Broadcast(context.Background(), CategoryRelease, "kept")
	d.Broadcast(context.Background(), CategoryRelease, "dropped")

	assert.Len(t, d.queue, 1)
}

func TestNewDiscord_RequiresChannel(t *testing.T) {
	assert.Panics(t, func() { NewDiscord(&DiscordConfig{Session: &fakeSender{}}) })
}

func TestMulti_FansOut(t *testing.T) {
	w := world.NewMemory(nil)
	w.Join(entities.Player{ID: "p1"}, w.DefaultSpawn())
	sender := &fakeSender{}
	d := NewDiscord(&DiscordConfig{Session: sender, ChannelID: "c1"})

	Multi{NewWorldChat(w), d, nil}.Broadcast(context.Background(), CategoryDeath, "hello")

	assert.Equal(t, []string{"hello"}, w.ChatLog())
	assert.Len(t, d.queue, 1)
}
