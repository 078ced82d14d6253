package discordgo

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomomo-focus"
)

type mockMessenger struct {
	channelMessageSendComplexFunc func(string, *discordgo.MessageSend) (*discordgo.Message, error)
}

func (m *mockMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.channelMessageSendComplexFunc != nil {
		return m.channelMessageSendComplexFunc(channelID, data)
	}
	return &discordgo.Message{ID: "msg"}, nil
}

func TestNotifier_Notify(t *testing.T) {
	var gotChannel string
	var got *discordgo.MessageSend
	cl := &mockMessenger{
		channelMessageSendComplexFunc: func(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
			gotChannel = channelID
			got = data
			return &discordgo.Message{ID: "msg-1"}, nil
		},
	}
	n := newNotifier(cl, "chan-1", "http://localhost:3000/", log.New(io.Discard))

	err := n.Notify(context.Background(), pomomo.Notification{
		Title: "Daily reminder: write report",
		Body:  "Don't forget to work on this task.",
		Icon:  "/logo192.png",
		URL:   "/tasks/task-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "chan-1", gotChannel)
	require.Len(t, got.Embeds, 1)
	embed := got.Embeds[0]
	assert.Equal(t, "Daily reminder: write report", embed.Title)
	assert.Equal(t, "Don't forget to work on this task.", embed.Description)
	assert.Equal(t, "http://localhost:3000/tasks/task-1", embed.URL)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "http://localhost:3000/logo192.png", embed.Thumbnail.URL)
}

func TestNotifier_AbsoluteLinks(t *testing.T) {
	n := newNotifier(&mockMessenger{}, "chan-1", "", log.New(io.Discard))

	assert.Equal(t, "https://cdn.example.com/icon.png", n.absolute("https://cdn.example.com/icon.png"))
	assert.Empty(t, n.absolute("/tasks/task-1"), "relative links need a base URL")
	assert.Empty(t, n.absolute(""))
}

func TestNotifier_SendError(t *testing.T) {
	cl := &mockMessenger{
		channelMessageSendComplexFunc: func(string, *discordgo.MessageSend) (*discordgo.Message, error) {
			return nil, errors.New("HTTP 403 Forbidden")
		},
	}
	n := newNotifier(cl, "chan-1", "http://localhost:3000", log.New(io.Discard))

	err := n.Notify(context.Background(), pomomo.Notification{Title: "Reminder"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chan-1")
}
