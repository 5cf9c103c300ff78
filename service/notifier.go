package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"santa/models"
)

// DeliveryReport summarizes the delivery of one assignment
type DeliveryReport struct {
	Sent   int
	Failed []int64 // Discord IDs of givers that did not receive their pairing
}

// OK reports whether every giver was notified
func (r *DeliveryReport) OK() bool {
	return len(r.Failed) == 0
}

type notifier struct {
	sender MessageSender
	delay  time.Duration
}

// NewNotifier creates a notifier that sends pairings one at a time, waiting
// delay between consecutive messages to stay under chat rate limits.
func NewNotifier(sender MessageSender, delay time.Duration) Notifier {
	return &notifier{
		sender: sender,
		delay:  delay,
	}
}

// Deliver sends every pairing to its giver. A failed send is recorded and does
// not stop the remaining sends. Cancelling ctx marks every unsent pairing failed.
func (n *notifier) Deliver(ctx context.Context, assignment *models.Assignment) *DeliveryReport {
	report := &DeliveryReport{}

	for i, pairing := range assignment.Pairings {
		if i > 0 && n.delay > 0 {
			if err := sleepContext(ctx, n.delay); err != nil {
				for _, rest := range assignment.Pairings[i:] {
					report.Failed = append(report.Failed, rest.Giver.DiscordID)
				}
				log.WithFields(log.Fields{
					"draw_id": assignment.DrawID,
					"unsent":  len(assignment.Pairings) - i,
				}).Warn("Delivery interrupted")
				break
			}
		}

		if err := n.sender.SendDirectMessage(ctx, pairing.Giver.DiscordID, pairing.Message); err != nil {
			log.WithFields(log.Fields{
				"draw_id":    assignment.DrawID,
				"discord_id": pairing.Giver.DiscordID,
			}).WithError(err).Error("Failed to deliver pairing")
			report.Failed = append(report.Failed, pairing.Giver.DiscordID)
			continue
		}
		report.Sent++
	}

	return report
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
