package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nivara-app/nivara-backend/internal/models"
)

const (
	conversationsCollection = "assistant_conversations"
	turnsCollection         = "assistant_turns"

	// conversationTitleMax bounds the sidebar title derived from the first prompt.
	conversationTitleMax = 60
)

// ConversationStore persists assistant conversations and their turns.
// MongoStore is the production implementation; tests use an in-memory fake.
type ConversationStore interface {
	SaveTurns(ctx context.Context, conv models.Conversation, turns ...models.ChatTurn) error
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	LoadTurns(ctx context.Context, conversationID string, before *time.Time, limit int64) ([]models.ChatTurn, bool, error)
	DeleteConversation(ctx context.Context, userID, conversationID string) error
}

// MongoConversationStore keeps conversations and turns in two collections.
type MongoConversationStore struct {
	db *mongo.Database
}

func NewMongoConversationStore(db *mongo.Database) *MongoConversationStore {
	return &MongoConversationStore{db: db}
}

// EnsureIndexes configures the turn-pagination and conversation-list indexes.
// Called on startup from main after Mongo has connected.
func (s *MongoConversationStore) EnsureIndexes(ctx context.Context) error {
	turnIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_conversation_timestamp"),
		},
	}
	if _, err := s.db.Collection(turnsCollection).Indexes().CreateMany(ctx, turnIndexes); err != nil {
		return err
	}

	convIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_updated"),
		},
	}
	_, err := s.db.Collection(conversationsCollection).Indexes().CreateMany(ctx, convIndexes)
	return err
}

// SaveTurns upserts the conversation metadata and appends the turns.
func (s *MongoConversationStore) SaveTurns(ctx context.Context, conv models.Conversation, turns ...models.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}

	update := bson.M{
		"$set": bson.M{
			"user_id":    conv.UserID,
			"updated_at": conv.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"title":      conv.Title,
			"created_at": conv.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.db.Collection(conversationsCollection).
		UpdateByID(ctx, conv.ID, update, opts); err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		if t.Timestamp.IsZero() {
			t.Timestamp = time.Now().UTC()
		}
		t.ConversationID = conv.ID
		docs = append(docs, t)
	}
	_, err := s.db.Collection(turnsCollection).InsertMany(ctx, docs)
	return err
}

// ListConversations returns the user's conversations, most recently updated first.
func (s *MongoConversationStore) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.db.Collection(conversationsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var convs []models.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *MongoConversationStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.Collection(conversationsCollection).
		FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// LoadTurns returns paginated turns for a conversation, oldest-first, with a
// hasMore flag. Pagination is timestamp-based (newest-first scrolling).
func (s *MongoConversationStore) LoadTurns(ctx context.Context, conversationID string, before *time.Time, limit int64) ([]models.ChatTurn, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	filter := bson.M{"conversation_id": conversationID}
	if before != nil {
		filter["timestamp"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := s.db.Collection(turnsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var turns []models.ChatTurn
	for cur.Next(ctx) {
		var t models.ChatTurn
		if err := cur.Decode(&t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	if err := cur.Err(); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(turns)) > limit
	if hasMore {
		turns = turns[:len(turns)-1]
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, hasMore, nil
}

// DeleteConversation removes a conversation and its turns, but only when the
// caller owns it.
func (s *MongoConversationStore) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	res, err := s.db.Collection(conversationsCollection).
		DeleteOne(ctx, bson.M{"_id": conversationID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return nil
	}
	_, err = s.db.Collection(turnsCollection).DeleteMany(ctx, bson.M{"conversation_id": conversationID})
	return err
}

// conversationTitle derives the sidebar title from the first prompt.
func conversationTitle(prompt string) string {
	title := strings.TrimSpace(prompt)
	if len(title) > conversationTitleMax {
		title = title[:conversationTitleMax] + "…"
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}
