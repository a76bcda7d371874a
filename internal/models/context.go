package models

import "time"

// ProjectContext is an uploaded source file attached to a conversation,
// stored post-compression. (conversation_id, file_path) is unique;
// re-adding the same path updates the row in place.
type ProjectContext struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	FilePath       string    `json:"file_path"`
	FileContent    string    `json:"file_content"`
	FileType       string    `json:"file_type"`
	LastUpdated    time.Time `json:"last_updated"`
	Metadata       Metadata  `json:"metadata"`
}
