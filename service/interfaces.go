package service

import (
	"context"
	"time"

	"santa/events"
	"santa/models"
)

// UserRepository defines the interface for participant data access
type UserRepository interface {
	// Ensure creates the participant row if it does not exist yet. The handle
	// of an existing row is never overwritten. created reports whether a row
	// was inserted.
	Ensure(ctx context.Context, discordID int64, handle string) (user *models.User, created bool, err error)

	// GetByDiscordID retrieves a participant, returning nil when absent
	GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error)

	// UpdateName sets the chosen name
	UpdateName(ctx context.Context, discordID int64, name string) error

	// UpdateWishAndRegister sets the wish and the registered flag in one write
	UpdateWishAndRegister(ctx context.Context, discordID int64, wish string) error

	// ListRegistered returns registered participants in insertion order
	ListRegistered(ctx context.Context) ([]*models.User, error)

	// ListAll returns the reporting view of every participant in insertion order
	ListAll(ctx context.Context) ([]models.UserStatistics, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	UserRepository() UserRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// DrawGate is the one-way flag that records that the draw has happened
type DrawGate interface {
	IsClosed(ctx context.Context) (bool, error)
	Close(ctx context.Context) error
}

// DrawLock serializes draw execution across every running instance
type DrawLock interface {
	// Acquire tries to take the lock. ok is false when another holder owns it.
	Acquire(ctx context.Context, ttl time.Duration) (token string, ok bool, err error)

	// Extend resets the TTL. ok is false when token no longer owns the lock.
	Extend(ctx context.Context, token string, ttl time.Duration) (ok bool, err error)

	// Release frees the lock if it is still owned by token
	Release(ctx context.Context, token string) error
}

// ConversationStore keeps the chat flow state of every participant
type ConversationStore interface {
	// Get returns StateNone for participants without stored state
	Get(ctx context.Context, discordID int64) (models.ConversationState, error)
	Set(ctx context.Context, discordID int64, state models.ConversationState) error
}

// MessageSender delivers a private message to a participant
type MessageSender interface {
	SendDirectMessage(ctx context.Context, discordID int64, content string) error
}

// UserService defines participant profile operations
type UserService interface {
	// Ensure records first contact with a participant
	Ensure(ctx context.Context, discordID int64, handle string) (*models.User, error)

	// Get returns the participant or ErrUserNotFound
	Get(ctx context.Context, discordID int64) (*models.User, error)

	// SetName changes the chosen name. Fails with ErrAlreadyDrawn once the gate is closed.
	SetName(ctx context.Context, discordID int64, name string) error

	// SetWish changes the wish and marks the participant registered.
	// Fails with ErrAlreadyDrawn once the gate is closed.
	SetWish(ctx context.Context, discordID int64, wish string) error
}

// DrawEngine computes a random derangement over the registered participants
type DrawEngine interface {
	Draw(users []*models.User) (*models.Assignment, error)
}

// Notifier delivers every pairing of an assignment to its giver
type Notifier interface {
	Deliver(ctx context.Context, assignment *models.Assignment) *DeliveryReport
}

// DrawCoordinator drives the admin "run the draw" interaction
type DrawCoordinator interface {
	// RequestDraw moves the admin into the confirmation step
	RequestDraw(ctx context.Context, adminID int64) error

	// CancelDraw leaves the confirmation step without side effects
	CancelDraw(ctx context.Context, adminID int64) error

	// ConfirmDraw runs the draw at most once
	ConfirmDraw(ctx context.Context, adminID int64) (*DrawResult, error)
}

// StatsService defines reporting operations
type StatsService interface {
	GetStatistics(ctx context.Context) (*models.Statistics, error)
}

// ConversationService interprets chat input according to the sender's conversation state
type ConversationService interface {
	HandleText(ctx context.Context, sender Sender, text string) (*Reply, error)
	HandleAction(ctx context.Context, sender Sender, action models.Action) (*Reply, error)
}
