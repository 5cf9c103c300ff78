package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"santa/models"
)

// ConversationStore keeps each participant's chat flow state
type ConversationStore struct {
	client *Client
	ttl    time.Duration
}

// NewConversationStore creates a store whose entries expire after ttl of inactivity
func NewConversationStore(client *Client, ttl time.Duration) *ConversationStore {
	return &ConversationStore{client: client, ttl: ttl}
}

// Get returns the stored state, or StateNone when nothing is stored
func (s *ConversationStore) Get(ctx context.Context, discordID int64) (models.ConversationState, error) {
	val, err := s.client.Get(ctx, s.client.key("conversation", discordID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.StateNone, nil
	}
	if err != nil {
		return models.StateNone, fmt.Errorf("failed to read conversation state for %d: %w", discordID, err)
	}

	state := models.ConversationState(val)
	if !state.IsValid() {
		log.WithFields(log.Fields{
			"discord_id": discordID,
			"state":      val,
		}).Warn("Unknown conversation state, starting over")
		return models.StateNone, nil
	}
	return state, nil
}

// Set stores the state and refreshes its expiry
func (s *ConversationStore) Set(ctx context.Context, discordID int64, state models.ConversationState) error {
	key := s.client.key("conversation", discordID)

	var err error
	if state == models.StateNone {
		err = s.client.Del(ctx, key).Err()
	} else {
		err = s.client.Set(ctx, key, string(state), s.ttl).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to store conversation state for %d: %w", discordID, err)
	}
	return nil
}
