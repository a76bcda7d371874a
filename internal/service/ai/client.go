// Package ai wraps the upstream chat-model providers behind a single
// synchronous completion call.
package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	log "github.com/sirupsen/logrus"

	"codechat/internal/config"
	"codechat/internal/models"
)

// ChatModel is the narrow slice of an eino chat model this service uses.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Turn is one role/content entry of the outbound payload.
type Turn struct {
	Role    models.Role
	Content string
}

// Reply carries the model's text plus reported token usage. Token counts
// are zero when the provider omits usage information.
type Reply struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Client is the single outbound collaborator: one blocking completion per
// request, no timeout or retry beyond what the provider surfaces.
type Client struct {
	model     ChatModel
	modelName string
	log       *log.Entry
}

// NewClient builds the configured provider's chat model.
func NewClient(cfg *config.Config) (*Client, error) {
	provider := cfg.BasicConfig.Provider
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}
	apiKey := cfg.ProviderAPIKey(provider)
	if apiKey == "" {
		return nil, fmt.Errorf("api key for provider %s is missing", provider)
	}

	var (
		chatModel ChatModel
		err       error
	)
	switch provider {
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    apiKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: cfg.BasicConfig.MaxTokens,
		})
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  apiKey,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return &Client{
		model:     chatModel,
		modelName: provCfg.Model,
		log:       log.WithField("component", "ai"),
	}, nil
}

// NewClientWithModel wires an already-constructed chat model. Used by tests.
func NewClientWithModel(m ChatModel, modelName string) *Client {
	return &Client{model: m, modelName: modelName, log: log.WithField("component", "ai")}
}

// ModelName reports the configured model identifier.
func (c *Client) ModelName() string {
	return c.modelName
}

// Complete sends the system prompt and ordered turns upstream and returns
// the reply with token usage.
func (c *Client) Complete(ctx context.Context, system string, turns []Turn) (*Reply, error) {
	messages := make([]*schema.Message, 0, len(turns)+1)
	messages = append(messages, &schema.Message{Role: schema.System, Content: system})
	for _, t := range turns {
		var role schema.RoleType
		switch t.Role {
		case models.RoleUser:
			role = schema.User
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}
		messages = append(messages, &schema.Message{Role: role, Content: t.Content})
	}

	resp, err := c.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate completion: %w", err)
	}

	reply := &Reply{Text: resp.Content}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		reply.InputTokens = int64(resp.ResponseMeta.Usage.PromptTokens)
		reply.OutputTokens = int64(resp.ResponseMeta.Usage.CompletionTokens)
	}
	c.log.WithFields(log.Fields{
		"model":         c.modelName,
		"input_tokens":  reply.InputTokens,
		"output_tokens": reply.OutputTokens,
	}).Debug("completion finished")
	return reply, nil
}
