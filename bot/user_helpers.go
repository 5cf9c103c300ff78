package bot

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"santa/bot/common"
	"santa/service"
)

// senderFromUser converts a Discord identity into a conversation sender
func senderFromUser(u *discordgo.User) (service.Sender, error) {
	if u == nil {
		return service.Sender{}, fmt.Errorf("missing user")
	}

	discordID, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return service.Sender{}, fmt.Errorf("invalid discord ID %q: %w", u.ID, err)
	}

	return service.Sender{
		DiscordID: discordID,
		Handle:    common.FormatHandle(u.Username, u.GlobalName),
	}, nil
}

// interactionUser returns the invoking user for both guild and DM interactions
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
