package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"santa/bot/common"
	"santa/service"
)

const commandHint = "Send me a direct message to join Secret Santa or to change your registration 🎄"

// handleDirectMessage feeds private chat text into the conversation flow
func (b *Bot) handleDirectMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}

	sender, err := senderFromUser(m.Author)
	if err != nil {
		log.WithError(err).Warn("Ignoring message from unparseable user")
		return
	}

	ctx := context.Background()
	reply, err := b.conversations.HandleText(ctx, sender, m.Content)
	if err != nil {
		log.WithFields(log.Fields{
			"discord_id": sender.DiscordID,
			"operation":  "text",
		}).WithError(err).Error("Failed to handle message")
		reply = &service.Reply{Text: service.MsgGenericError}
	}

	if err := common.SendChannelMessage(s, m.ChannelID, reply.Text, common.MenuComponents(reply.Menu)); err != nil {
		log.WithField("discord_id", sender.DiscordID).WithError(err).Error("Failed to send reply")
	}
}

// handleComponentInteraction routes menu button presses
func (b *Bot) handleComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	action, ok := common.ParseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	sender, err := senderFromUser(interactionUser(i))
	if err != nil {
		log.WithError(err).Warn("Ignoring interaction from unparseable user")
		return
	}

	// The draw can take a while, so every press is acknowledged first
	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithError(err).Error("Failed to acknowledge interaction")
		return
	}

	ctx := context.Background()
	reply, err := b.conversations.HandleAction(ctx, sender, action)
	if err != nil {
		log.WithFields(log.Fields{
			"discord_id": sender.DiscordID,
			"operation":  action,
		}).WithError(err).Error("Failed to handle action")
		reply = &service.Reply{Text: service.MsgGenericError}
	}

	common.FollowUp(s, i, reply.Text, common.MenuComponents(reply.Menu))
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "santa":
		common.RespondEphemeral(s, i, commandHint)
	}
}
