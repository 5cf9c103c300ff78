package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"santa/database"
	"santa/models"
	"santa/service"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `discord_id, handle, name, wish, registered, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.DiscordID,
		&user.Handle,
		&user.Name,
		&user.Wish,
		&user.Registered,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Ensure inserts a participant on first contact. The handle recorded on
// first contact is kept even if the chat identity changes later.
func (r *UserRepository) Ensure(ctx context.Context, discordID int64, handle string) (*models.User, bool, error) {
	query := `
		INSERT INTO users (discord_id, handle)
		VALUES ($1, $2)
		ON CONFLICT (discord_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, discordID, handle)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user %d: %w", discordID, err)
	}
	created := result.RowsAffected() == 1

	user, err := r.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, fmt.Errorf("user %d vanished after insert", discordID)
	}

	return user, created, nil
}

// GetByDiscordID retrieves a participant by their Discord ID
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE discord_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by discord ID %d: %w", discordID, err)
	}

	return user, nil
}

// UpdateName sets the participant's chosen name
func (r *UserRepository) UpdateName(ctx context.Context, discordID int64, name string) error {
	query := `
		UPDATE users
		SET name = $2, updated_at = NOW()
		WHERE discord_id = $1
	`

	result, err := r.q.Exec(ctx, query, discordID, name)
	if err != nil {
		return fmt.Errorf("failed to update name for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", discordID, service.ErrUserNotFound)
	}

	return nil
}

// UpdateWishAndRegister sets the wish and marks the participant registered in
// a single statement. Participants without a name are never registered.
func (r *UserRepository) UpdateWishAndRegister(ctx context.Context, discordID int64, wish string) error {
	query := `
		UPDATE users
		SET wish = $2, registered = TRUE, updated_at = NOW()
		WHERE discord_id = $1 AND name <> ''
	`

	result, err := r.q.Exec(ctx, query, discordID, wish)
	if err != nil {
		return fmt.Errorf("failed to update wish for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 1 {
		return nil
	}

	user, err := r.GetByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", discordID, service.ErrUserNotFound)
	}
	return fmt.Errorf("user %d: %w", discordID, service.ErrNameRequired)
}

// ListRegistered returns registered participants in the order they first made contact
func (r *UserRepository) ListRegistered(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE registered ORDER BY seq`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query registered users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// ListAll returns the reporting view of every participant in the order they first made contact
func (r *UserRepository) ListAll(ctx context.Context) ([]models.UserStatistics, error) {
	query := `SELECT handle, name, registered FROM users ORDER BY seq`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	stats := make([]models.UserStatistics, 0)
	for rows.Next() {
		var s models.UserStatistics
		if err := rows.Scan(&s.Handle, &s.Name, &s.Registered); err != nil {
			return nil, fmt.Errorf("failed to scan user statistics: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return stats, nil
}
