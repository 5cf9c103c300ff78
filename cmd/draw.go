package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"santa/config"
	"santa/redisstore"
)

// DrawCommand runs operator actions against the draw gate: "status" or "reopen"
func DrawCommand(ctx context.Context, action string) error {
	cfg := config.Get()

	client, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer client.Close()

	gate := redisstore.NewDrawGate(client)

	switch action {
	case "status":
		closed, err := gate.IsClosed(ctx)
		if err != nil {
			return err
		}
		if closed {
			log.Info("The draw has happened, profile edits are locked")
		} else {
			log.Info("The draw has not happened yet")
		}
		return nil
	case "reopen":
		if err := gate.Reopen(ctx); err != nil {
			return err
		}
		log.Warn("Draw gate reopened, the next confirmed draw will send new pairings")
		return nil
	default:
		return fmt.Errorf("unknown draw command: %s", action)
	}
}
