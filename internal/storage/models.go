package storage

import "time"

// TurnRecord is one stored turn of a conversation.
type TurnRecord struct {
	ID             string // UUID
	ConversationID string // Foreign key to conversations.id
	Seq            int    // Position within the conversation (starts at 0)
	Role           string
	Content        string
	CreatedAt      time.Time
}
