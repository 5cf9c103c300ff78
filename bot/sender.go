package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// DirectMessenger sends private messages through the bot's Discord session
type DirectMessenger struct {
	session *discordgo.Session
}

// NewDirectMessenger creates a new direct messenger
func NewDirectMessenger(session *discordgo.Session) *DirectMessenger {
	return &DirectMessenger{session: session}
}

// SendDirectMessage opens (or reuses) the DM channel with the user and posts content
func (d *DirectMessenger) SendDirectMessage(ctx context.Context, discordID int64, content string) error {
	channel, err := d.session.UserChannelCreate(strconv.FormatInt(discordID, 10), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel with %d: %w", discordID, err)
	}

	if _, err := d.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM to %d: %w", discordID, err)
	}

	return nil
}
