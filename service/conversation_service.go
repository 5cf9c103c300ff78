package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"santa/models"
)

// MenuKind selects which buttons accompany a reply
type MenuKind int

const (
	MenuNone MenuKind = iota
	MenuParticipant
	MenuAdmin
	MenuConfirm
)

// Sender identifies the chat user behind an event
type Sender struct {
	DiscordID int64
	Handle    string
}

// Reply is what the chat layer sends back for one event
type Reply struct {
	Text string
	Menu MenuKind
}

type conversationService struct {
	adminID       int64
	users         UserService
	stats         StatsService
	draws         DrawCoordinator
	gate          DrawGate
	conversations ConversationStore
	messenger     MessageSender
}

// NewConversationService creates the chat flow service
func NewConversationService(
	adminID int64,
	users UserService,
	stats StatsService,
	draws DrawCoordinator,
	gate DrawGate,
	conversations ConversationStore,
	messenger MessageSender,
) ConversationService {
	return &conversationService{
		adminID:       adminID,
		users:         users,
		stats:         stats,
		draws:         draws,
		gate:          gate,
		conversations: conversations,
		messenger:     messenger,
	}
}

func (s *conversationService) isAdmin(discordID int64) bool {
	return s.adminID != 0 && discordID == s.adminID
}

func (s *conversationService) menuFor(sender Sender) MenuKind {
	if s.isAdmin(sender.DiscordID) {
		return MenuAdmin
	}
	return MenuParticipant
}

func (s *conversationService) reply(sender Sender, text string) *Reply {
	return &Reply{Text: text, Menu: s.menuFor(sender)}
}

// HandleText interprets free text according to the sender's conversation state
func (s *conversationService) HandleText(ctx context.Context, sender Sender, text string) (*Reply, error) {
	state, err := s.conversations.Get(ctx, sender.DiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}

	switch state {
	case models.StateAwaitingName:
		return s.submitName(ctx, sender, text, models.StateAwaitingWish, &Reply{Text: MsgAskWish})
	case models.StateChangingName:
		return s.submitName(ctx, sender, text, models.StateDone, s.reply(sender, MsgSaved))
	case models.StateAwaitingWish, models.StateChangingWish:
		return s.submitWish(ctx, sender, text)
	case models.StateDone:
		return s.reply(sender, MsgGreeting), nil
	case models.StateConfirmingDraw:
		if err := s.draws.CancelDraw(ctx, sender.DiscordID); err != nil {
			return nil, err
		}
		return s.reply(sender, MsgDrawPostponed), nil
	default:
		return s.firstContact(ctx, sender)
	}
}

// firstContact handles a sender without stored state. Known participants
// resume where their record says they are instead of starting over.
func (s *conversationService) firstContact(ctx context.Context, sender Sender) (*Reply, error) {
	user, err := s.users.Ensure(ctx, sender.DiscordID, sender.Handle)
	if err != nil {
		return nil, err
	}

	next := models.StateAwaitingName
	reply := &Reply{Text: MsgAskName}
	switch {
	case user.Registered:
		next = models.StateDone
		reply = s.reply(sender, MsgGreeting)
	case user.Name != "":
		next = models.StateAwaitingWish
		reply = &Reply{Text: MsgAskWish}
	}

	if err := s.setState(ctx, sender, next); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *conversationService) submitName(ctx context.Context, sender Sender, text string, next models.ConversationState, success *Reply) (*Reply, error) {
	err := s.users.SetName(ctx, sender.DiscordID, text)
	if reply, handled, err := s.inputOutcome(ctx, sender, "set_name", err, MsgNameTooLong); handled {
		return reply, err
	}

	if err := s.setState(ctx, sender, next); err != nil {
		return nil, err
	}
	return success, nil
}

func (s *conversationService) submitWish(ctx context.Context, sender Sender, text string) (*Reply, error) {
	err := s.users.SetWish(ctx, sender.DiscordID, text)
	if reply, handled, err := s.inputOutcome(ctx, sender, "set_wish", err, MsgWishTooLong); handled {
		return reply, err
	}

	if err := s.setState(ctx, sender, models.StateDone); err != nil {
		return nil, err
	}
	return s.reply(sender, MsgSaved), nil
}

// inputOutcome converts the result of a name or wish update into a reply.
// handled is false only when the update succeeded.
func (s *conversationService) inputOutcome(ctx context.Context, sender Sender, operation string, err error, tooLongMsg string) (*Reply, bool, error) {
	switch {
	case err == nil:
		return nil, false, nil
	case errors.Is(err, ErrEmptyInput):
		return &Reply{Text: MsgEmptyInput}, true, nil
	case errors.Is(err, ErrInputTooLong):
		return &Reply{Text: tooLongMsg}, true, nil
	case errors.Is(err, ErrNameRequired):
		if err := s.setState(ctx, sender, models.StateAwaitingName); err != nil {
			return nil, true, err
		}
		return &Reply{Text: MsgAskName}, true, nil
	case errors.Is(err, ErrAlreadyDrawn):
		if err := s.setState(ctx, sender, models.StateDone); err != nil {
			return nil, true, err
		}
		return s.reply(sender, MsgDrawHappened), true, nil
	case errors.Is(err, ErrUserNotFound):
		return s.userMissing(ctx, sender, operation), true, nil
	default:
		return nil, true, err
	}
}

// HandleAction interprets a menu button press
func (s *conversationService) HandleAction(ctx context.Context, sender Sender, action models.Action) (*Reply, error) {
	if action.IsAdminOnly() && !s.isAdmin(sender.DiscordID) {
		log.WithFields(log.Fields{
			"discord_id": sender.DiscordID,
			"action":     action,
		}).Warn("Non-admin attempted admin action")
		return s.reply(sender, MsgAdminOnly), nil
	}

	switch action {
	case models.ActionInfo:
		return s.showInfo(ctx, sender)
	case models.ActionChangeName:
		return s.beginEdit(ctx, sender, "change_name", models.StateChangingName, MsgAskName, MsgNameLocked)
	case models.ActionChangeWish:
		return s.beginEdit(ctx, sender, "change_wish", models.StateChangingWish, MsgAskWish, MsgWishLocked)
	case models.ActionAdminStats:
		stats, err := s.stats.GetStatistics(ctx)
		if err != nil {
			return nil, err
		}
		return &Reply{Text: stats.String(), Menu: MenuAdmin}, nil
	case models.ActionAdminDraw:
		if err := s.draws.RequestDraw(ctx, sender.DiscordID); err != nil {
			return nil, err
		}
		return &Reply{Text: MsgConfirmDraw, Menu: MenuConfirm}, nil
	case models.ActionNo:
		if err := s.draws.CancelDraw(ctx, sender.DiscordID); err != nil {
			return nil, err
		}
		return &Reply{Text: MsgDrawPostponed, Menu: MenuAdmin}, nil
	case models.ActionYes:
		return s.confirmDraw(ctx, sender)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

func (s *conversationService) showInfo(ctx context.Context, sender Sender) (*Reply, error) {
	user, err := s.users.Get(ctx, sender.DiscordID)
	if errors.Is(err, ErrUserNotFound) {
		return s.userMissing(ctx, sender, "info"), nil
	}
	if err != nil {
		return nil, err
	}
	return s.reply(sender, fmt.Sprintf(MsgUserData, user.Name, user.Wish)), nil
}

func (s *conversationService) beginEdit(ctx context.Context, sender Sender, operation string, next models.ConversationState, prompt, lockedMsg string) (*Reply, error) {
	closed, err := s.gate.IsClosed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check draw gate: %w", err)
	}
	if closed {
		return s.reply(sender, lockedMsg), nil
	}

	_, err = s.users.Get(ctx, sender.DiscordID)
	if errors.Is(err, ErrUserNotFound) {
		return s.userMissing(ctx, sender, operation), nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.setState(ctx, sender, next); err != nil {
		return nil, err
	}
	return &Reply{Text: prompt}, nil
}

// confirmDraw runs the draw only from the confirmation step, so a stale
// "Yes" button left in the chat cannot start it.
func (s *conversationService) confirmDraw(ctx context.Context, sender Sender) (*Reply, error) {
	state, err := s.conversations.Get(ctx, sender.DiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state != models.StateConfirmingDraw {
		log.WithFields(log.Fields{
			"discord_id": sender.DiscordID,
			"state":      state,
		}).Info("Ignoring draw confirmation outside the confirmation step")
		return &Reply{Text: MsgNoDrawPending, Menu: MenuAdmin}, nil
	}

	result, err := s.draws.ConfirmDraw(ctx, sender.DiscordID)
	if err != nil {
		return nil, err
	}

	text := MsgLettersSent
	switch result.Outcome {
	case OutcomeAlreadyDrawn:
		text = MsgAlreadyDrawn
	case OutcomeInProgress:
		text = MsgDrawInProgress
	case OutcomeInsufficientParticipants:
		text = MsgTooFewRegistered
	case OutcomePartialDelivery:
		ids := make([]string, len(result.Report.Failed))
		for i, id := range result.Report.Failed {
			ids[i] = strconv.FormatInt(id, 10)
		}
		text = fmt.Sprintf(MsgPartialDelivery, len(result.Report.Failed), result.Participants, strings.Join(ids, ", "))
	}
	return &Reply{Text: text, Menu: MenuAdmin}, nil
}

// userMissing alerts the administrator about a participant without a record
// and gives the participant the generic error text.
func (s *conversationService) userMissing(ctx context.Context, sender Sender, operation string) *Reply {
	log.WithFields(log.Fields{
		"discord_id": sender.DiscordID,
		"handle":     sender.Handle,
		"operation":  operation,
	}).Error("User not found")

	alert := fmt.Sprintf(MsgUserNotFound, sender.DiscordID, sender.Handle, operation)
	if err := s.messenger.SendDirectMessage(ctx, s.adminID, alert); err != nil {
		log.WithError(err).Error("Failed to alert admin about missing user")
	}

	return s.reply(sender, MsgGenericError)
}

func (s *conversationService) setState(ctx context.Context, sender Sender, state models.ConversationState) error {
	if err := s.conversations.Set(ctx, sender.DiscordID, state); err != nil {
		return fmt.Errorf("failed to store conversation state: %w", err)
	}
	return nil
}
