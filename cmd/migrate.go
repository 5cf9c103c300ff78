package cmd

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"santa/database"
)

// MigrateCommand runs `santa migrate up|down [steps]|status`. It reads only
// DATABASE_URL and DATABASE_NAME so the schema can be managed before the
// bot itself is configured.
func MigrateCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: santa migrate [up|down|status] [args...]")
	}

	migrator, err := database.NewMigrator(database.URLFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.WithError(err).Warn("Failed to close migrator")
		}
	}()

	switch args[0] {
	case "up":
		changed, err := migrator.Up()
		if err != nil {
			return err
		}
		if !changed {
			log.Info("No new migrations to apply")
			return nil
		}
		return logMigrationStatus(migrator, "Successfully migrated")

	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid steps value %q: %w", args[1], err)
			}
		}
		changed, err := migrator.Down(steps)
		if err != nil {
			return err
		}
		if !changed {
			log.Info("No migrations to roll back")
			return nil
		}
		return logMigrationStatus(migrator, "Successfully rolled back")

	case "status":
		return logMigrationStatus(migrator, "Current migration")

	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}

func logMigrationStatus(migrator *database.Migrator, prefix string) error {
	status, err := migrator.Status()
	if err != nil {
		return err
	}
	if !status.Applied {
		log.Info("No migrations have been applied yet")
		return nil
	}

	state := "clean"
	if status.Dirty {
		state = "dirty"
	}
	log.Infof("%s: version %d (%s)", prefix, status.Version, state)
	return nil
}
