package models

import "time"

// ChatTurn is a single message in an assistant conversation.
type ChatTurn struct {
	ConversationID string    `bson:"conversation_id" json:"-"`
	Role           string    `bson:"role" json:"role"` // "user" or "assistant"
	Content        string    `bson:"content" json:"content"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

// Conversation groups the turns a user exchanged with the assistant.
// Title is the first prompt, truncated for the sidebar.
type Conversation struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"-"`
	Title     string    `bson:"title" json:"title"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
