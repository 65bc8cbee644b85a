package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nivara-app/nivara-backend/internal/models"
)

const (
	chatRecentKeyPrefix = "chat:conversation:"
	chatRecentKeySuffix = ":recent"
	chatRecentMaxLen    = 50
	chatRecentTTL       = 1 * time.Hour
)

// ChatCache keeps the most recent turns of a conversation in Redis so the
// initial chat load skips Mongo. Optional: a nil *ChatCache is a no-op.
type ChatCache struct {
	client *redis.Client
}

func NewChatCache(client *redis.Client) *ChatCache {
	if client == nil {
		return nil
	}
	return &ChatCache{client: client}
}

func chatRecentKey(conversationID string) string {
	return chatRecentKeyPrefix + conversationID + chatRecentKeySuffix
}

// Push adds a turn at the head and trims to the last 50.
func (c *ChatCache) Push(turn models.ChatTurn) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(turn)
	if err != nil {
		return
	}

	key := chatRecentKey(turn.ConversationID)
	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: push failed for conversation %s: %v", turn.ConversationID, err)
	}
}

// Recent returns cached turns oldest-first. Only valid for the initial load
// (no pagination cursor). (nil, false) on miss.
func (c *ChatCache) Recent(ctx context.Context, conversationID string) ([]models.ChatTurn, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.LRange(ctx, chatRecentKey(conversationID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var turns []models.ChatTurn
	for i := len(raw) - 1; i >= 0; i-- {
		var t models.ChatTurn
		if json.Unmarshal([]byte(raw[i]), &t) != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, true
}

// Warm stores turns fetched from Mongo (oldest at tail) for the next load.
func (c *ChatCache) Warm(ctx context.Context, conversationID string, turns []models.ChatTurn) {
	if c == nil || len(turns) == 0 {
		return
	}

	key := chatRecentKey(conversationID)
	pipe := c.client.Pipeline()
	for i := len(turns) - 1; i >= 0; i-- {
		data, err := json.Marshal(turns[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: warm failed for conversation %s: %v", conversationID, err)
	}
}

// Drop removes the cached turns (after a conversation delete).
func (c *ChatCache) Drop(ctx context.Context, conversationID string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, chatRecentKey(conversationID)).Err()
}
