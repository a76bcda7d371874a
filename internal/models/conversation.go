package models

import "time"

// Conversation groups a sequence of exchanges with the assistant. Rows are
// never physically deleted; IsDeleted hides them from default listings.
type Conversation struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	CreatedAt         time.Time `json:"created_at"`
	LastUpdated       time.Time `json:"last_updated"`
	TotalInputTokens  int64     `json:"total_input_tokens"`
	TotalOutputTokens int64     `json:"total_output_tokens"`
	IsDeleted         bool      `json:"is_deleted"`
	IsFavorite        bool      `json:"is_favorite"`
	Metadata          Metadata  `json:"metadata"`
}

// TokenUsage is the per-conversation token accounting exposed to clients.
type TokenUsage struct {
	InputTokens  int64 `json:"total_input_tokens"`
	OutputTokens int64 `json:"total_output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// ConversationStats aggregates counts and totals for one conversation.
type ConversationStats struct {
	InputTokens   int64     `json:"total_input_tokens"`
	OutputTokens  int64     `json:"total_output_tokens"`
	TotalTokens   int64     `json:"total_tokens"`
	MessageCount  int64     `json:"message_count"`
	ArtifactCount int64     `json:"artifact_count"`
	ContextCount  int64     `json:"context_count"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdated   time.Time `json:"last_updated"`
	Duration      string    `json:"duration"`
}

// DatabaseStats aggregates store-wide counters.
type DatabaseStats struct {
	ActiveConversations int64 `json:"active_conversations"`
	TotalMessages       int64 `json:"total_messages"`
	TotalArtifacts      int64 `json:"total_artifacts"`
	TotalContexts       int64 `json:"total_contexts"`
	TotalInputTokens    int64 `json:"total_input_tokens"`
	TotalOutputTokens   int64 `json:"total_output_tokens"`
	TotalTokens         int64 `json:"total_tokens"`
	DatabaseSize        int64 `json:"database_size"`
}
