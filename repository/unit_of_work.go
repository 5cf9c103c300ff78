package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"santa/database"
	"santa/events"
	"santa/service"
)

// Participant writes are single-row statements, read committed is enough.
var txOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

type unitOfWorkFactory struct {
	db  *database.DB
	bus *events.Bus
}

// NewUnitOfWorkFactory creates units of work on db whose committed events go to bus
func NewUnitOfWorkFactory(db *database.DB, bus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db, bus: bus}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:     f.db,
		events: events.NewTransactionalBus(f.bus),
	}
}

// unitOfWork is one postgres transaction plus the events raised inside it.
// It is single use: after Commit or Rollback the repositories are gone.
type unitOfWork struct {
	db     *database.DB
	ctx    context.Context
	tx     pgx.Tx
	users  *UserRepository
	events *events.TransactionalBus
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.ctx = ctx
	u.tx = tx
	u.users = newUserRepositoryWithTx(tx)
	return nil
}

// Commit commits and then releases the buffered events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.end()
	if err != nil {
		u.events.Discard()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.events.Flush()
	return nil
}

// Rollback is safe to defer, it does nothing once the transaction has ended
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.end()
	u.events.Discard()
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) end() {
	u.tx = nil
	u.users = nil
}

func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.users == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.users
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.tx == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.events
}
