package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"santa/events"
	"santa/models"
)

// DrawOutcome describes how a confirmed draw request ended
type DrawOutcome string

const (
	OutcomeCompleted                DrawOutcome = "completed"
	OutcomePartialDelivery          DrawOutcome = "partial_delivery"
	OutcomeAlreadyDrawn             DrawOutcome = "already_drawn"
	OutcomeInsufficientParticipants DrawOutcome = "insufficient_participants"
	OutcomeInProgress               DrawOutcome = "in_progress"
)

// DrawResult is returned by ConfirmDraw
type DrawResult struct {
	Outcome      DrawOutcome
	DrawID       string
	Participants int
	Report       *DeliveryReport // nil unless the draw ran
}

type drawCoordinator struct {
	mu            sync.Mutex // serializes draws inside this process
	uowFactory    UnitOfWorkFactory
	gate          DrawGate
	lock          DrawLock
	engine        DrawEngine
	notifier      Notifier
	conversations ConversationStore
	publisher     EventPublisher
	lockTTL       time.Duration
}

// NewDrawCoordinator creates a new draw coordinator
func NewDrawCoordinator(
	uowFactory UnitOfWorkFactory,
	gate DrawGate,
	lock DrawLock,
	engine DrawEngine,
	notifier Notifier,
	conversations ConversationStore,
	publisher EventPublisher,
	lockTTL time.Duration,
) DrawCoordinator {
	return &drawCoordinator{
		uowFactory:    uowFactory,
		gate:          gate,
		lock:          lock,
		engine:        engine,
		notifier:      notifier,
		conversations: conversations,
		publisher:     publisher,
		lockTTL:       lockTTL,
	}
}

func (c *drawCoordinator) RequestDraw(ctx context.Context, adminID int64) error {
	if err := c.conversations.Set(ctx, adminID, models.StateConfirmingDraw); err != nil {
		return fmt.Errorf("failed to enter draw confirmation: %w", err)
	}
	return nil
}

func (c *drawCoordinator) CancelDraw(ctx context.Context, adminID int64) error {
	if err := c.conversations.Set(ctx, adminID, models.StateDone); err != nil {
		return fmt.Errorf("failed to cancel draw confirmation: %w", err)
	}
	return nil
}

// ConfirmDraw runs the draw unless it already happened. The gate check and the
// gate close happen under the process mutex and the shared draw lock, so two
// confirmations can never both send letters.
func (c *drawCoordinator) ConfirmDraw(ctx context.Context, adminID int64) (*DrawResult, error) {
	if err := c.conversations.Set(ctx, adminID, models.StateDone); err != nil {
		return nil, fmt.Errorf("failed to leave draw confirmation: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	token, acquired, err := c.lock.Acquire(ctx, c.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire draw lock: %w", err)
	}
	if !acquired {
		return &DrawResult{Outcome: OutcomeInProgress}, nil
	}
	defer func() {
		// A cancelled request still frees the lock
		releaseCtx, cancel := detached(ctx)
		defer cancel()
		if err := c.lock.Release(releaseCtx, token); err != nil {
			log.WithError(err).Error("Failed to release draw lock")
		}
	}()

	closed, err := c.gate.IsClosed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check draw gate: %w", err)
	}
	if closed {
		return &DrawResult{Outcome: OutcomeAlreadyDrawn}, nil
	}

	users, err := c.loadParticipants(ctx)
	if err != nil {
		return nil, err
	}

	assignment, err := c.engine.Draw(users)
	if errors.Is(err, ErrInsufficientParticipants) {
		return &DrawResult{Outcome: OutcomeInsufficientParticipants, Participants: len(users)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compute assignment: %w", err)
	}

	logger := log.WithFields(log.Fields{
		"draw_id":      assignment.DrawID,
		"participants": len(users),
	})
	logger.Info("Draw computed, delivering pairings")

	// Delivery can outlast the lock TTL, so the lock is refreshed until the
	// gate is closed. Losing it stops delivery.
	deliverCtx, stopDelivery := context.WithCancel(ctx)
	defer stopDelivery()
	stopKeepAlive := c.keepLock(ctx, token, func() {
		logger.Error("Draw lock lost during delivery, stopping")
		stopDelivery()
	})

	report := c.notifier.Deliver(deliverCtx, assignment)

	// The gate closes even when some letters failed or the request was
	// cancelled. Running the draw again would hand out a second, conflicting
	// set of pairings.
	closeCtx, cancelClose := detached(ctx)
	defer cancelClose()
	err = c.gate.Close(closeCtx)
	stopKeepAlive()
	if err != nil {
		logger.WithError(err).Error("Pairings delivered but the draw gate could not be closed")
		return nil, fmt.Errorf("failed to close draw gate: %w", err)
	}

	c.publisher.Publish(events.DrawCompletedEvent{
		DrawID:       assignment.DrawID,
		Participants: len(users),
		Delivered:    report.Sent,
		Failed:       report.Failed,
	})

	result := &DrawResult{
		Outcome:      OutcomeCompleted,
		DrawID:       assignment.DrawID,
		Participants: len(users),
		Report:       report,
	}
	if !report.OK() {
		result.Outcome = OutcomePartialDelivery
		logger.WithField("failed", report.Failed).Warn("Draw finished with undelivered pairings")
	} else {
		logger.Info("Draw finished")
	}

	return result, nil
}

func (c *drawCoordinator) loadParticipants(ctx context.Context) ([]*models.User, error) {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().ListRegistered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered users: %w", err)
	}
	return users, nil
}

// keepLock extends the draw lock every third of its TTL until the returned
// stop function is called. onLost runs once if the lock changed hands.
func (c *drawCoordinator) keepLock(ctx context.Context, token string, onLost func()) (stop func()) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	interval := c.lockTTL / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ok, err := c.lock.Extend(ctx, token, c.lockTTL)
				if err != nil {
					// The current TTL still covers the next attempt
					log.WithError(err).Warn("Failed to extend draw lock")
					continue
				}
				if !ok {
					onLost()
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// detached keeps ctx values but not its cancellation, for writes that must
// finish once the draw has started sending letters
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}
