package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"santa/database"
)

// Registrant describes a participant to seed
type Registrant struct {
	DiscordID int64
	Name      string
	Wish      string // empty leaves the participant unregistered
}

// TestHandle returns the handle seeded for a Discord ID
func TestHandle(discordID int64) string {
	return fmt.Sprintf("@user%d", discordID)
}

// SeedUsers inserts participants in order so their insertion sequence follows the slice
func SeedUsers(t *testing.T, db *database.DB, registrants ...Registrant) {
	t.Helper()
	ctx := context.Background()

	for _, r := range registrants {
		_, err := db.Exec(ctx,
			`INSERT INTO users (discord_id, handle, name, wish, registered) VALUES ($1, $2, $3, $4, $5)`,
			r.DiscordID, TestHandle(r.DiscordID), r.Name, r.Wish, r.Name != "" && r.Wish != "",
		)
		require.NoError(t, err)
	}
}
