package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation. Immutable once created; ordered by
// Timestamp within its conversation. Only one token counter is populated
// per row, depending on the role.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	TokensInput    int64     `json:"tokens_input"`
	TokensOutput   int64     `json:"tokens_output"`
	Timestamp      time.Time `json:"timestamp"`
	Metadata       Metadata  `json:"metadata"`
}
