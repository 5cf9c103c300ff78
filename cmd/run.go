package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"santa/bot"
	"santa/config"
	"santa/database"
	"santa/events"
	"santa/httpapi"
	"santa/redisstore"
	"santa/repository"
	"santa/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := ConfigureLogging(cfg); err != nil {
		return err
	}

	log.Info("Starting Secret Santa bot...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), cfg.PoolOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize redis
	log.Info("Connecting to redis...")
	redisClient, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info("Redis connection established successfully")

	drawGate := redisstore.NewDrawGate(redisClient)
	drawLock := redisstore.NewDrawLock(redisClient)
	conversationStore := redisstore.NewConversationStore(redisClient, cfg.ConversationTTL)

	// Initialize event bus
	log.Info("Initializing event bus...")
	eventBus := events.NewBus()
	log.Info("Event bus initialized successfully")

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Discord session first, the notifier delivers through it
	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	messenger := bot.NewDirectMessenger(session)

	// Initialize services
	log.Info("Initializing services...")
	userService := service.NewUserService(uowFactory, drawGate)
	statsService := service.NewStatsService(uowFactory)
	notifier := service.NewNotifier(messenger, cfg.DrawMessageDelay)
	drawCoordinator := service.NewDrawCoordinator(
		uowFactory,
		drawGate,
		drawLock,
		service.NewDrawEngine(),
		notifier,
		conversationStore,
		eventBus,
		cfg.DrawLockTTL,
	)
	conversationService := service.NewConversationService(
		cfg.AdminID,
		userService,
		statsService,
		drawCoordinator,
		drawGate,
		conversationStore,
		messenger,
	)
	log.Info("Services initialized successfully")

	// Ops HTTP server
	opsServer := httpapi.NewServer(cfg.HTTPAddr, statsService, drawGate, map[string]httpapi.Check{
		"postgres": db.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}, cfg.Environment == "production")
	opsServer.Start()

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		AdminID:                   cfg.AdminID,
		NotifyAdminOnRegistration: cfg.NotifyAdminOnRegistration,
	}, session, conversationService, messenger, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down ops HTTP server: %v", err)
	}

	// Let in-flight admin notifications finish before the stores close
	if err := eventBus.Wait(shutdownCtx); err != nil {
		log.Warnf("Event handlers still running at shutdown: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}
