package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"santa/events"
	"santa/models"
)

const (
	// MaxNameLength is the longest accepted name in runes
	MaxNameLength = 100

	// MaxWishLength is the longest accepted wish in runes
	MaxWishLength = 1000
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	gate       DrawGate
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, gate DrawGate) UserService {
	return &userService{
		uowFactory: uowFactory,
		gate:       gate,
	}
}

// Ensure creates the participant row on first contact. It works after the
// draw too, the row just never becomes part of it.
func (s *userService) Ensure(ctx context.Context, discordID int64, handle string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, created, err := uow.UserRepository().Ensure(ctx, discordID, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if created {
		log.WithFields(log.Fields{
			"discord_id": discordID,
			"handle":     handle,
		}).Info("New participant")
	}

	return user, nil
}

func (s *userService) Get(ctx context.Context, discordID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) SetName(ctx context.Context, discordID int64, name string) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}

	name, err := normalizeInput(name, MaxNameLength)
	if err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().UpdateName(ctx, discordID, name); err != nil {
		return fmt.Errorf("failed to update name: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *userService) SetWish(ctx context.Context, discordID int64, wish string) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}

	wish, err := normalizeInput(wish, MaxWishLength)
	if err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.UserRepository()
	user, err := repo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Name == "" {
		return ErrNameRequired
	}

	if err := repo.UpdateWishAndRegister(ctx, discordID, wish); err != nil {
		return fmt.Errorf("failed to update wish: %w", err)
	}

	if !user.Registered {
		uow.EventBus().Publish(events.UserRegisteredEvent{
			DiscordID: user.DiscordID,
			Handle:    user.Handle,
			Name:      user.Name,
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ensureOpen fails with ErrAlreadyDrawn once the draw has happened
func (s *userService) ensureOpen(ctx context.Context) error {
	closed, err := s.gate.IsClosed(ctx)
	if err != nil {
		return fmt.Errorf("failed to check draw gate: %w", err)
	}
	if closed {
		return ErrAlreadyDrawn
	}
	return nil
}

func normalizeInput(raw string, maxLen int) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrEmptyInput
	}
	if utf8.RuneCountInString(value) > maxLen {
		return "", fmt.Errorf("%w: limit is %d characters", ErrInputTooLong, maxLen)
	}
	return value, nil
}
