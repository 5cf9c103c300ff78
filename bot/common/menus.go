package common

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"santa/models"
	"santa/service"
)

// CustomIDPrefix marks component interactions that belong to this bot
const CustomIDPrefix = "santa_"

// CustomID returns the component custom ID for an action
func CustomID(action models.Action) string {
	return CustomIDPrefix + string(action)
}

// ParseCustomID extracts the action from a component custom ID
func ParseCustomID(customID string) (models.Action, bool) {
	raw, ok := strings.CutPrefix(customID, CustomIDPrefix)
	if !ok {
		return "", false
	}
	return models.ParseAction(raw)
}

type menuButton struct {
	action models.Action
	label  string
	emoji  string
	style  discordgo.ButtonStyle
}

var (
	participantButtons = []menuButton{
		{action: models.ActionInfo, label: "View my data", emoji: "📋", style: discordgo.SecondaryButton},
		{action: models.ActionChangeName, label: "Change name", emoji: "✏️", style: discordgo.PrimaryButton},
		{action: models.ActionChangeWish, label: "Change wish", emoji: "🎁", style: discordgo.PrimaryButton},
	}
	adminButtons = []menuButton{
		{action: models.ActionAdminStats, label: "Statistics", emoji: "📊", style: discordgo.SecondaryButton},
		{action: models.ActionAdminDraw, label: "Run draw", emoji: "🎅", style: discordgo.DangerButton},
	}
	confirmButtons = []menuButton{
		{action: models.ActionYes, label: "Yes", style: discordgo.SuccessButton},
		{action: models.ActionNo, label: "No", style: discordgo.SecondaryButton},
	}
)

// MenuComponents builds the button row for a reply menu
func MenuComponents(kind service.MenuKind) []discordgo.MessageComponent {
	var buttons []menuButton
	switch kind {
	case service.MenuParticipant:
		buttons = participantButtons
	case service.MenuAdmin:
		buttons = append(append([]menuButton{}, participantButtons...), adminButtons...)
	case service.MenuConfirm:
		buttons = confirmButtons
	default:
		return nil
	}

	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		label := b.label
		if b.emoji != "" {
			label = b.emoji + " " + label
		}
		row.Components = append(row.Components, discordgo.Button{
			Label:    label,
			Style:    b.style,
			CustomID: CustomID(b.action),
		})
	}

	return []discordgo.MessageComponent{row}
}
