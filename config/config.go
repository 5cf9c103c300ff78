package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"santa/database"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string `env:"DISCORD_TOKEN"`
	AdminID      int64  `env:"ADMIN_DISCORD_ID"` // The single administrator account

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	DatabaseMaxConns       int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseConnectTimeout time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"10s"`

	// Redis configuration (draw gate, draw lock, conversation state)
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"santa:"`

	// Draw configuration
	DrawMessageDelay time.Duration `env:"DRAW_MESSAGE_DELAY" envDefault:"1s"`
	DrawLockTTL      time.Duration `env:"DRAW_LOCK_TTL" envDefault:"10m"`

	// Conversation state expiry
	ConversationTTL time.Duration `env:"CONVERSATION_TTL" envDefault:"720h"`

	// Ops HTTP server
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8899"`

	NotifyAdminOnRegistration bool `env:"NOTIFY_ADMIN_ON_REGISTRATION" envDefault:"false"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "text" or "json"

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// NewTestConfig returns a configuration suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		AdminID:          1,
		RedisAddr:        "localhost:6379",
		RedisKeyPrefix:   "santa-test:",
		DrawMessageDelay: 0,
		DrawLockTTL:      time.Minute,
		ConversationTTL:  time.Hour,
		HTTPAddr:         ":0",
		LogLevel:         "debug",
		LogFormat:        "text",
		Environment:      "test",
	}
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// PoolOptions returns the database pool settings
func (c *Config) PoolOptions() database.PoolOptions {
	return database.PoolOptions{
		MaxConns:       c.DatabaseMaxConns,
		ConnectTimeout: c.DatabaseConnectTimeout,
	}
}

// load loads configuration from environment variables and an optional .env file
func load() (*Config, error) {
	// A missing .env file is fine, production injects the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.AdminID == 0 {
		return fmt.Errorf("ADMIN_DISCORD_ID is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DrawMessageDelay < 0 {
		return fmt.Errorf("DRAW_MESSAGE_DELAY must not be negative")
	}
	if c.DrawLockTTL <= 0 {
		return fmt.Errorf("DRAW_LOCK_TTL must be positive")
	}
	if c.DatabaseMaxConns < 0 {
		return fmt.Errorf("DATABASE_MAX_CONNS must not be negative")
	}
	return nil
}
