package models

import (
	"time"
)

// User represents a Secret Santa participant keyed by their Discord ID
type User struct {
	DiscordID  int64     `db:"discord_id"`
	Handle     string    `db:"handle"` // Derived from the Discord identity on first contact
	Name       string    `db:"name"`
	Wish       string    `db:"wish"`
	Registered bool      `db:"registered"` // True once both name and wish are set
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
