package models

import "time"

// DefaultArtifactLanguage is used when no language could be determined.
const DefaultArtifactLanguage = "markup"

// CodeArtifact is a code block extracted from an assistant reply.
// Append-only; language is lower-cased on insert.
type CodeArtifact struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Content        string    `json:"content"`
	Language       string    `json:"language"`
	Timestamp      time.Time `json:"timestamp"`
	IsExecutable   bool      `json:"is_executable"`
	Metadata       Metadata  `json:"metadata"`
}
