package bot

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"santa/events"
	"santa/service"
)

// subscribeEvents wires domain events to admin notifications and logs
func (b *Bot) subscribeEvents() {
	if b.config.NotifyAdminOnRegistration {
		b.eventBus.Subscribe(events.EventTypeUserRegistered, b.onUserRegistered)
		log.Info("Admin registration notifications enabled")
	}

	b.eventBus.Subscribe(events.EventTypeDrawCompleted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.DrawCompletedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"draw_id":      e.DrawID,
			"participants": e.Participants,
			"delivered":    e.Delivered,
			"failed":       len(e.Failed),
		}).Info("Draw completed")
	})
}

func (b *Bot) onUserRegistered(ctx context.Context, event events.Event) {
	e, ok := event.(events.UserRegisteredEvent)
	if !ok {
		return
	}

	text := fmt.Sprintf(service.MsgNewRegistration, e.Name, e.Handle)
	if err := b.messenger.SendDirectMessage(ctx, b.config.AdminID, text); err != nil {
		log.WithField("discord_id", e.DiscordID).WithError(err).Error("Failed to notify admin about registration")
	}
}
