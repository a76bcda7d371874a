// Package chat sequences the work done for each incoming prompt: context
// assembly, the single upstream model call, persistence of the exchange and
// artifact extraction.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"codechat/internal/compress"
	"codechat/internal/extract"
	"codechat/internal/models"
	"codechat/internal/service/ai"
	"codechat/internal/store"
)

// DefaultConversationName is assigned on implicit conversation creation.
const DefaultConversationName = "New Conversation"

var (
	// ErrEmptyRequest rejects a request carrying neither prompt nor file.
	ErrEmptyRequest = errors.New("please provide a prompt or attach a file")
	// ErrUpstream marks failures of the model provider, reported to
	// callers as a distinct category from internal errors.
	ErrUpstream = errors.New("model provider unavailable")
)

// Completer is the outbound model collaborator.
type Completer interface {
	Complete(ctx context.Context, system string, turns []ai.Turn) (*ai.Reply, error)
	ModelName() string
}

// Service orchestrates store, compressor, extractor and the model client.
type Service struct {
	store          *store.Store
	model          Completer
	extractor      *extract.Extractor
	artifactWindow time.Duration
	log            *log.Entry
}

// NewService wires the orchestrator. artifactWindow is the tolerance used
// to associate artifacts with messages when loading a conversation.
func NewService(st *store.Store, model Completer, extractor *extract.Extractor, artifactWindow time.Duration) *Service {
	if artifactWindow <= 0 {
		artifactWindow = time.Second
	}
	return &Service{
		store:          st,
		model:          model,
		extractor:      extractor,
		artifactWindow: artifactWindow,
		log:            log.WithField("component", "chat"),
	}
}

// ProcessRequest is one incoming prompt, optionally with an attached file.
type ProcessRequest struct {
	ConversationID int64
	Prompt         string
	FileName       string
	FileContent    string
}

// ProcessResult is the structured response returned to the client.
type ProcessResult struct {
	ConversationID int64                 `json:"conversation_id"`
	Response       string                `json:"response"`
	InputTokens    int64                 `json:"input_tokens"`
	OutputTokens   int64                 `json:"output_tokens"`
	TotalTokens    models.TokenUsage     `json:"total_tokens"`
	Artifacts      []models.CodeArtifact `json:"artifacts"`
	Timestamp      time.Time             `json:"timestamp"`
	Metadata       models.Metadata       `json:"metadata"`
}

// Process handles one prompt end to end. A zero conversation id triggers
// implicit creation; an empty request is rejected before any side effect.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	if req.Prompt == "" && req.FileName == "" {
		return nil, ErrEmptyRequest
	}

	conversationID := req.ConversationID
	if conversationID == 0 {
		id, err := s.store.CreateConversation(ctx, DefaultConversationName, nil)
		if err != nil {
			return nil, err
		}
		conversationID = id
	}

	if req.FileName != "" {
		if err := s.attachFile(ctx, conversationID, req.FileName, req.FileContent); err != nil {
			return nil, err
		}
	}

	system, turns, err := s.assembleContext(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	turns = append(turns, ai.Turn{Role: models.RoleUser, Content: req.Prompt})

	reply, err := s.model.Complete(ctx, system, turns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if _, err := s.store.AddMessage(ctx, conversationID, models.RoleUser, req.Prompt, reply.InputTokens, 0, nil); err != nil {
		return nil, err
	}
	if _, err := s.store.AddMessage(ctx, conversationID, models.RoleAssistant, reply.Text, 0, reply.OutputTokens, nil); err != nil {
		return nil, err
	}

	responseText, artifacts, err := s.extractor.Extract(ctx, conversationID, reply.Text)
	if err != nil {
		return nil, err
	}

	totals, err := s.store.GetConversationTokens(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	name, _, err := s.store.GetConversationName(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	contexts, err := s.store.GetProjectContexts(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(log.Fields{
		"conversation_id": conversationID,
		"artifacts":       len(artifacts),
		"total_tokens":    totals.TotalTokens,
	}).Info("processed request")

	return &ProcessResult{
		ConversationID: conversationID,
		Response:       responseText,
		InputTokens:    reply.InputTokens,
		OutputTokens:   reply.OutputTokens,
		TotalTokens:    totals,
		Artifacts:      artifacts,
		Timestamp:      time.Now().UTC(),
		Metadata: models.Metadata{
			"model":             s.model.ModelName(),
			"conversation_name": name,
			"has_context_files": len(contexts) > 0,
			"artifact_count":    len(artifacts),
		},
	}, nil
}

// attachFile compresses an uploaded file and upserts it as a project
// context, recording size and compression ratio in metadata.
func (s *Service) attachFile(ctx context.Context, conversationID int64, fileName, fileContent string) error {
	compressed := compress.File(fileName, fileContent)

	ratio := 100.0
	if len(fileContent) > 0 {
		ratio = math.Round(float64(len(compressed))/float64(len(fileContent))*100*100) / 100
	}
	metadata := models.Metadata{
		"original_size":     len(fileContent),
		"compressed_size":   len(compressed),
		"compression_ratio": ratio,
	}
	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))

	_, err := s.store.UpsertProjectContext(ctx, conversationID, fileName, compressed, fileType, metadata)
	return err
}
