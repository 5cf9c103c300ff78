package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"santa/cmd"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			// Migrations read DATABASE_URL straight from the environment
			_ = godotenv.Load()
			if err := cmd.MigrateCommand(os.Args[2:]); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "draw":
			if len(os.Args) < 3 {
				log.Fatal("usage: santa draw [status|reopen]")
			}
			if err := cmd.DrawCommand(context.Background(), os.Args[2]); err != nil {
				log.Fatal("Draw command error: ", err)
			}
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}
