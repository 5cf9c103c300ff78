package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"santa/events"
	"santa/service"
)

// Config holds bot configuration
type Config struct {
	AdminID                   int64
	NotifyAdminOnRegistration bool
}

type Bot struct {
	config        Config
	session       *discordgo.Session
	conversations service.ConversationService
	messenger     service.MessageSender
	eventBus      *events.Bus
}

// NewSession creates the Discord session shared by the bot and the direct messenger
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsDirectMessages
	return dg, nil
}

// New registers the handlers, opens the websocket connection and registers slash commands
func New(config Config, session *discordgo.Session, conversations service.ConversationService, messenger service.MessageSender, eventBus *events.Bus) (*Bot, error) {
	bot := &Bot{
		config:        config,
		session:       session,
		conversations: conversations,
		messenger:     messenger,
		eventBus:      eventBus,
	}

	session.AddHandler(bot.handleReady)
	session.AddHandler(bot.handleDirectMessage)
	session.AddHandler(bot.handleComponentInteraction)
	session.AddHandler(bot.handleCommands)

	bot.subscribeEvents()

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		session.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("Connected to Discord")
}

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "santa",
			Description: "Join Secret Santa or manage your registration",
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
