package models

import "time"

// ConversationExport is the archival snapshot of one conversation and all
// of its child rows. Importing a snapshot produces a new conversation with
// fresh ids.
type ConversationExport struct {
	ExportID     string            `json:"export_id"`
	ExportedAt   time.Time         `json:"export_timestamp"`
	Conversation Conversation      `json:"conversation"`
	Messages     []Message         `json:"messages"`
	Contexts     []ProjectContext  `json:"contexts"`
	Artifacts    []CodeArtifact    `json:"artifacts"`
	Stats        ConversationStats `json:"stats"`
}
