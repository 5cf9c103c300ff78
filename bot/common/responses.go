package common

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// DeferResponse acknowledges an interaction so the answer can arrive as a follow-up
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// FollowUp sends content as follow-up messages, attaching components to the last one
func FollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) {
	chunks := SplitMessage(content, MaxMessageLength)
	for idx, chunk := range chunks {
		params := &discordgo.WebhookParams{Content: chunk}
		if idx == len(chunks)-1 && len(components) > 0 {
			params.Components = components
		}
		if _, err := s.FollowupMessageCreate(i.Interaction, false, params); err != nil {
			log.Errorf("Error sending follow-up message: %v", err)
			return
		}
	}
}

// SendChannelMessage sends content to a channel, attaching components to the last chunk
func SendChannelMessage(s *discordgo.Session, channelID, content string, components []discordgo.MessageComponent) error {
	chunks := SplitMessage(content, MaxMessageLength)
	for idx, chunk := range chunks {
		msg := &discordgo.MessageSend{Content: chunk}
		if idx == len(chunks)-1 && len(components) > 0 {
			msg.Components = components
		}
		if _, err := s.ChannelMessageSendComplex(channelID, msg); err != nil {
			return err
		}
	}
	return nil
}

// RespondEphemeral answers an interaction with a message only the caller sees
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending ephemeral response: %v", err)
	}
}
