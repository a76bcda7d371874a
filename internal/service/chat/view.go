package chat

import (
	"context"

	"codechat/internal/models"
)

// MessageView is a message with its heuristically associated artifacts.
type MessageView struct {
	models.Message
	Artifacts []models.CodeArtifact `json:"artifacts"`
}

// ConversationView is the full client-facing load of one conversation.
type ConversationView struct {
	Messages  []MessageView          `json:"messages"`
	Contexts  []models.ProjectContext `json:"contexts"`
	Tokens    models.TokenUsage       `json:"tokens"`
	Artifacts []models.CodeArtifact   `json:"artifacts"`
}

// Load returns a conversation's messages, contexts, token totals and
// artifacts. Each artifact is attached to messages whose timestamp lies
// within the configured tolerance window; the association is best-effort
// only.
func (s *Service) Load(ctx context.Context, conversationID int64) (*ConversationView, error) {
	messages, err := s.store.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	contexts, err := s.store.GetProjectContexts(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.store.GetConversationTokens(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	artifacts, err := s.store.GetCodeArtifacts(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		view := MessageView{Message: m}
		for _, a := range artifacts {
			delta := a.Timestamp.Sub(m.Timestamp)
			if delta < 0 {
				delta = -delta
			}
			if delta <= s.artifactWindow {
				view.Artifacts = append(view.Artifacts, a)
			}
		}
		views = append(views, view)
	}

	return &ConversationView{
		Messages:  views,
		Contexts:  contexts,
		Tokens:    tokens,
		Artifacts: artifacts,
	}, nil
}
