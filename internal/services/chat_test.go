package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivara-app/nivara-backend/internal/apperror"
	"github.com/nivara-app/nivara-backend/internal/models"
)

type fakeGenerator struct {
	answer string
	err    error

	mu      sync.Mutex
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.answer, g.err
}

// fakeConversationStore keeps everything in memory. Mutex-guarded because
// ChatService persists turns from a goroutine.
type fakeConversationStore struct {
	mu    sync.Mutex
	convs map[string]models.Conversation
	turns map[string][]models.ChatTurn
	fail  bool
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{
		convs: make(map[string]models.Conversation),
		turns: make(map[string][]models.ChatTurn),
	}
}

func (s *fakeConversationStore) SaveTurns(_ context.Context, conv models.Conversation, turns ...models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store down")
	}
	if existing, ok := s.convs[conv.ID]; ok {
		existing.UpdatedAt = conv.UpdatedAt
		s.convs[conv.ID] = existing
	} else {
		s.convs[conv.ID] = conv
	}
	s.turns[conv.ID] = append(s.turns[conv.ID], turns...)
	return nil
}

func (s *fakeConversationStore) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, c := range s.convs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeConversationStore) GetConversation(_ context.Context, conversationID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[conversationID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *fakeConversationStore) LoadTurns(_ context.Context, conversationID string, before *time.Time, limit int64) ([]models.ChatTurn, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	all := s.turns[conversationID]
	var filtered []models.ChatTurn
	for _, t := range all {
		if before == nil || t.Timestamp.Before(before.UTC()) {
			filtered = append(filtered, t)
		}
	}
	hasMore := int64(len(filtered)) > limit
	if hasMore {
		filtered = filtered[int64(len(filtered))-limit:]
	}
	return filtered, hasMore, nil
}

func (s *fakeConversationStore) DeleteConversation(_ context.Context, userID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[conversationID]; ok && c.UserID == userID {
		delete(s.convs, conversationID)
		delete(s.turns, conversationID)
	}
	return nil
}

func (s *fakeConversationStore) turnCount(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns[conversationID])
}

func TestAskRejectsEmptyPrompt(t *testing.T) {
	chat := NewChatService(&fakeGenerator{answer: "hi"}, nil, nil)

	_, _, err := chat.Ask(context.Background(), "user-1", "", "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAskWithoutHistoryIsPassThrough(t *testing.T) {
	gen := &fakeGenerator{answer: "four"}
	chat := NewChatService(gen, nil, nil)

	answer, convID, err := chat.Ask(context.Background(), "user-1", "", "what is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "four", answer)
	assert.Empty(t, convID, "no history means no conversation to track")
	assert.Equal(t, []string{"what is 2+2?"}, gen.prompts)
}

func TestAskPropagatesGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	chat := NewChatService(gen, newFakeConversationStore(), nil)

	_, _, err := chat.Ask(context.Background(), "user-1", "", "hello")
	assert.EqualError(t, err, "upstream down")
}

func TestAskFallsBackOnEmptyAnswer(t *testing.T) {
	gen := &fakeGenerator{answer: "   "}
	chat := NewChatService(gen, nil, nil)

	answer, _, err := chat.Ask(context.Background(), "user-1", "", "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, answer)
}

func TestAskPersistsBothTurns(t *testing.T) {
	store := newFakeConversationStore()
	chat := NewChatService(&fakeGenerator{answer: "hi there"}, store, nil)

	answer, convID, err := chat.Ask(context.Background(), "user-1", "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", answer)
	require.NotEmpty(t, convID, "a new conversation gets an ID")

	// Persistence is asynchronous.
	require.Eventually(t, func() bool {
		return store.turnCount(convID) == 2
	}, 2*time.Second, 10*time.Millisecond)

	turns, hasMore, err := store.LoadTurns(context.Background(), convID, nil, 50)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, "assistant", turns[1].Role)
	assert.Equal(t, "hi there", turns[1].Content)
	assert.True(t, turns[0].Timestamp.Before(turns[1].Timestamp), "user turn sorts before the reply")

	conv, err := store.GetConversation(context.Background(), convID)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, "user-1", conv.UserID)
	assert.Equal(t, "hello", conv.Title)
}

func TestAskContinuesExistingConversation(t *testing.T) {
	store := newFakeConversationStore()
	chat := NewChatService(&fakeGenerator{answer: "reply"}, store, nil)

	_, convID, err := chat.Ask(context.Background(), "user-1", "", "first")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.turnCount(convID) == 2 }, 2*time.Second, 10*time.Millisecond)

	_, sameID, err := chat.Ask(context.Background(), "user-1", convID, "second")
	require.NoError(t, err)
	assert.Equal(t, convID, sameID)
	require.Eventually(t, func() bool { return store.turnCount(convID) == 4 }, 2*time.Second, 10*time.Millisecond)
}

func TestAskWithoutUserDoesNotRecordHistory(t *testing.T) {
	store := newFakeConversationStore()
	chat := NewChatService(&fakeGenerator{answer: "hi"}, store, nil)

	answer, convID, err := chat.Ask(context.Background(), "", "", "anonymous hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", answer)
	assert.Empty(t, convID, "no owner means no conversation")

	// Nothing may land in the store, not even under an empty user ID.
	assert.Never(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.convs) > 0 || len(store.turns) > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestAskSurvivesHistoryFailure(t *testing.T) {
	store := newFakeConversationStore()
	store.fail = true
	chat := NewChatService(&fakeGenerator{answer: "still works"}, store, nil)

	answer, _, err := chat.Ask(context.Background(), "user-1", "", "hello")
	require.NoError(t, err, "a dead history store must not fail the response")
	assert.Equal(t, "still works", answer)
}

func TestHistoryEnforcesOwnership(t *testing.T) {
	store := newFakeConversationStore()
	chat := NewChatService(&fakeGenerator{answer: "reply"}, store, nil)

	_, convID, err := chat.Ask(context.Background(), "owner", "", "secret stuff")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.turnCount(convID) == 2 }, 2*time.Second, 10*time.Millisecond)

	_, _, err = chat.History(context.Background(), "someone-else", convID, nil, 50)
	assert.ErrorIs(t, err, apperror.ErrAuth)

	_, _, err = chat.History(context.Background(), "owner", "no-such-conversation", nil, 50)
	assert.ErrorIs(t, err, apperror.ErrAuth, "a missing conversation looks the same as a foreign one")

	turns, hasMore, err := chat.History(context.Background(), "owner", convID, nil, 50)
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, turns, 2)
}

func TestDeleteConversation(t *testing.T) {
	store := newFakeConversationStore()
	chat := NewChatService(&fakeGenerator{answer: "reply"}, store, nil)

	_, convID, err := chat.Ask(context.Background(), "user-1", "", "hello")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.turnCount(convID) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, chat.DeleteConversation(context.Background(), "user-1", convID))

	conv, err := store.GetConversation(context.Background(), convID)
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestCachedPageNeedsMoreThanLimit(t *testing.T) {
	turns := make([]models.ChatTurn, 10)
	for i := range turns {
		turns[i].Content = strconv.Itoa(i)
	}

	page, ok := cachedPage(turns, 10)
	assert.False(t, ok, "exactly limit cached turns cannot prove nothing older exists")
	assert.Nil(t, page)

	_, ok = cachedPage(turns[:2], 5)
	assert.False(t, ok, "a short cache may be a partial rebuild, not the whole history")

	page, ok = cachedPage(turns, 4)
	require.True(t, ok)
	require.Len(t, page, 4)
	assert.Equal(t, "6", page[0].Content)
	assert.Equal(t, "9", page[3].Content)
}

func TestConversationTitle(t *testing.T) {
	assert.Equal(t, "hello", conversationTitle("  hello  "))
	assert.Equal(t, "New conversation", conversationTitle("   "))

	long := conversationTitle("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	assert.Len(t, []rune(long), conversationTitleMax+1, "truncated title plus ellipsis")
}
