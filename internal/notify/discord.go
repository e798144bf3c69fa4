package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/headsteal/internal/chat"
	"github.com/KirkDiggler/headsteal/internal/logger"
)

const defaultDiscordQueue = 64

var categoryColors = map[Category]int{
	CategoryDeath:    0xe74c3c, // Red
	CategoryRevive:   0x2ecc71, // Green
	CategoryRelease:  0xf1c40f, // Yellow
	CategoryHeadDrop: 0xe67e22, // Orange
}

var categoryTitles = map[Category]string{
	CategoryDeath:    "BanBox death",
	CategoryRevive:   "BanBox revive",
	CategoryRelease:  "BanBox release",
	CategoryHeadDrop: "Head drop",
}

// MessageSender is the part of *discordgo.Session the sink uses
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordConfig configures the Discord relay
type DiscordConfig struct {
	Session   MessageSender
	ChannelID string
	QueueSize int
}

// Discord relays broadcasts to a channel from its own goroutine
type Discord struct {
	session   MessageSender
	channelID string
	queue     chan *discordgo.MessageSend
}

// NewDiscord creates the relay. Run must be started for messages to be sent.
func NewDiscord(cfg *DiscordConfig) *Discord {
	if cfg == nil || cfg.Session == nil {
		panic("discord session is required")
	}
	if cfg.ChannelID == "" {
		panic("discord channel id is required")
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultDiscordQueue
	}
	return &Discord{
		session:   cfg.Session,
		channelID: cfg.ChannelID,
		queue:     make(chan *discordgo.MessageSend, size),
	}
}

// Broadcast implements Notifier. When the queue is full the message is dropped.
func (d *Discord) Broadcast(_ context.Context, category Category, message string) {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       title(category),
			Description: chat.Strip(message),
			Color:       categoryColors[category],
		}},
	}

	select {
	case d.queue <- msg:
	default:
		logger.ForComponent("notify").WithField("category", category).Warn("discord relay queue full, dropping broadcast")
	}
}

func title(category Category) string {
	if t, ok := categoryTitles[category]; ok {
		return t
	}
	return fmt.Sprintf("HeadSteal %s", category)
}

// Run sends queued messages until ctx is done
func (d *Discord) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.queue:
			if _, err := d.session.ChannelMessageSendComplex(d.channelID, msg); err != nil {
				logger.ForComponent("notify").WithError(err).WithField("channel_id", d.channelID).Error("failed to relay broadcast to discord")
			}
		}
	}
}
