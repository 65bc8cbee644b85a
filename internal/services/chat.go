package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nivara-app/nivara-backend/internal/apperror"
	"github.com/nivara-app/nivara-backend/internal/models"
)

// ChatService composes the assistant proxy with conversation history. History
// and cache are optional: with neither configured the service is a plain
// pass-through to the model.
type ChatService struct {
	generator Generator
	history   ConversationStore
	cache     *ChatCache
	now       func() time.Time
}

func NewChatService(generator Generator, history ConversationStore, cache *ChatCache) *ChatService {
	return &ChatService{
		generator: generator,
		history:   history,
		cache:     cache,
		now:       time.Now,
	}
}

// SetClock overrides the turn-timestamp clock. Tests only.
func (s *ChatService) SetClock(now func() time.Time) {
	s.now = now
}

// Ask forwards the prompt to the model and records both turns in the caller's
// conversation. An empty conversationID starts a new conversation; the
// (possibly new) ID is returned so the client can continue it. An empty model
// answer degrades to FallbackResponse rather than an empty turn. Turns are
// recorded only for authenticated callers: with no user ID there is no owner
// for the conversation, so nothing is persisted.
func (s *ChatService) Ask(ctx context.Context, userID, conversationID, prompt string) (string, string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", "", apperror.Validation("prompt", "Prompt is required")
	}

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(answer) == "" {
		answer = FallbackResponse
	}

	if s.history == nil || userID == "" {
		return answer, conversationID, nil
	}

	now := s.now().UTC()
	conv := models.Conversation{
		ID:        conversationID,
		UserID:    userID,
		Title:     conversationTitle(prompt),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	userTurn := models.ChatTurn{
		ConversationID: conv.ID,
		Role:           "user",
		Content:        prompt,
		Timestamp:      now,
	}
	assistantTurn := models.ChatTurn{
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        answer,
		// Strictly after the user turn so pagination order is stable.
		Timestamp: now.Add(time.Millisecond),
	}

	// Persistence is fire-and-forget; the response does not wait on Mongo.
	go func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.SaveTurns(saveCtx, conv, userTurn, assistantTurn); err != nil {
			return
		}
		s.cache.Push(userTurn)
		s.cache.Push(assistantTurn)
	}()

	return answer, conv.ID, nil
}

// Conversations lists the caller's conversations, newest first.
func (s *ChatService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListConversations(ctx, userID)
}

// History returns paginated turns. The initial load (before == nil) tries the
// recent cache first; the cache only answers when it provably holds more turns
// than the page asks for, anything else falls through to the store so hasMore
// always comes from the store's limit+1 fetch.
func (s *ChatService) History(ctx context.Context, userID, conversationID string, before *time.Time, limit int64) ([]models.ChatTurn, bool, error) {
	if s.history == nil {
		return nil, false, nil
	}

	conv, err := s.history.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, false, err
	}
	if conv == nil || conv.UserID != userID {
		return nil, false, apperror.Auth("Conversation not found")
	}

	if before == nil && limit > 0 && limit < chatRecentMaxLen {
		if cached, ok := s.cache.Recent(ctx, conversationID); ok {
			if page, ok := cachedPage(cached, limit); ok {
				return page, true, nil
			}
		}
	}

	turns, hasMore, err := s.history.LoadTurns(ctx, conversationID, before, limit)
	if err != nil {
		return nil, false, err
	}
	if before == nil && len(turns) > 0 {
		s.cache.Warm(ctx, conversationID, turns)
	}
	return turns, hasMore, nil
}

// cachedPage cuts a history page out of the cached recent turns. Only a cache
// holding strictly more turns than the page proves that older turns exist;
// with limit or fewer cached there is no way to tell whether the store has
// more, so (nil, false) sends the caller to the store.
func cachedPage(cached []models.ChatTurn, limit int64) ([]models.ChatTurn, bool) {
	if int64(len(cached)) <= limit {
		return nil, false
	}
	return cached[int64(len(cached))-limit:], true
}

// DeleteConversation removes a conversation the caller owns.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.DeleteConversation(ctx, userID, conversationID); err != nil {
		return apperror.Storage(err, "Failed to delete conversation")
	}
	s.cache.Drop(ctx, conversationID)
	return nil
}
