// Package discordgo delivers reminders to a Discord channel using package github.com/bwmarrin/discordgo
package discordgo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-focus"
)

const colorRed = 0xed4245

type channelMessenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Notifier struct {
	cl        channelMessenger
	channelID string
	baseURL   string
	l         *log.Logger
}

// NewNotifier opens a bot session for token. baseURL turns relative reminder
// links and icons into absolute ones.
func NewNotifier(token, channelID, baseURL string, logger *log.Logger) (*Notifier, error) {
	cl, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return newNotifier(cl, channelID, baseURL, logger), nil
}

func newNotifier(cl channelMessenger, channelID, baseURL string, logger *log.Logger) *Notifier {
	return &Notifier{
		cl:        cl,
		channelID: channelID,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		l:         logger,
	}
}

func (n *Notifier) Notify(ctx context.Context, notification pomomo.Notification) error {
	embed := &discordgo.MessageEmbed{
		Title:       notification.Title,
		Description: notification.Body,
		URL:         n.absolute(notification.URL),
		Color:       colorRed,
	}
	if icon := n.absolute(notification.Icon); icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: icon}
	}

	msg, err := n.cl.ChannelMessageSendComplex(n.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send discord message to channel %s: %w", n.channelID, err)
	}
	n.l.Debug("sent discord reminder", "channelID", n.channelID, "messageID", msg.ID)
	return nil
}

func (n *Notifier) absolute(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if n.baseURL == "" {
		return ""
	}
	return n.baseURL + "/" + strings.TrimPrefix(ref, "/")
}
