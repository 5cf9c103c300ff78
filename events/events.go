package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType names a domain event
type EventType string

const (
	EventTypeUserRegistered EventType = "user_registered"
	EventTypeDrawCompleted  EventType = "draw_completed"
)

type Event interface {
	Type() EventType
}

// UserRegisteredEvent is raised when a participant sets their wish for the first time
type UserRegisteredEvent struct {
	DiscordID int64
	Handle    string
	Name      string
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// DrawCompletedEvent is raised once the draw gate has been closed
type DrawCompletedEvent struct {
	DrawID       string
	Participants int
	Delivered    int
	Failed       []int64
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}

type Handler func(ctx context.Context, event Event)

// Bus fans events out to subscribers. Every handler runs on its own
// goroutine so a slow subscriber never holds up a chat reply.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers handler for every future event of eventType
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	count := len(b.handlers[eventType])
	b.mu.Unlock()

	log.WithFields(log.Fields{
		"event_type":    eventType,
		"handler_count": count,
	}).Debug("Subscribed event handler")
}

// Publish dispatches immediately. Code outside a unit of work uses the bus
// directly as its EventPublisher.
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// Emit dispatches event to a snapshot of the current subscribers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"event_type":    event.Type(),
		"handler_count": len(handlers),
	}).Debug("Dispatching event")

	for i, h := range handlers {
		b.inflight.Add(1)
		go b.dispatch(ctx, h, i, event)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, index int, event Event) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"event_type":    event.Type(),
				"handler_index": index,
				"panic":         r,
			}).Error("Event handler panicked")
		}
	}()
	h(ctx, event)
}

// Wait blocks until every dispatched handler has returned or ctx is done
func (b *Bus) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TransactionalBus buffers events raised inside a unit of work. They reach
// the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending reports how many events are waiting for a commit
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush hands the buffered events to the real bus. Handlers outlive the
// transaction, so they get a background context.
func (b *TransactionalBus) Flush() {
	if len(b.pending) == 0 {
		return
	}

	log.WithField("pending_count", len(b.pending)).Debug("Flushing committed events")

	for _, ev := range b.pending {
		b.real.Emit(context.Background(), ev)
	}
	b.pending = nil
}

// Discard drops the buffered events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
