// Package openai provides the OpenAI premium provider adapter.
package openai

import (
	"context"
	"fmt"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
	"github.com/mingmanhk/deepticker/internal/providers"
)

const DefaultModel = "gpt-4o-mini"

// Client implements the AIProvider interface for OpenAI.
type Client struct {
	credentials interfaces.CredentialStore
	model       string
	logger      *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new OpenAI provider adapter
func NewClient(credentials interfaces.CredentialStore, opts ...ClientOption) *Client {
	c := &Client{
		credentials: credentials,
		model:       DefaultModel,
		logger:      common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ID identifies this provider.
func (c *Client) ID() models.ProviderID {
	return models.ProviderOpenAI
}

// Generate sends the prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	apiKey, err := c.credentials.GetSecret(ctx, models.ProviderOpenAI)
	if err != nil {
		return "", fmt.Errorf("failed to resolve OpenAI credential: %w", err)
	}
	if apiKey == "" {
		return "", fmt.Errorf("no OpenAI credential stored")
	}

	client := gopenai.NewClient(apiKey)

	c.logger.Debug().Str("model", c.model).Msg("OpenAI generate request")

	resp, err := client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: providers.SystemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

// Ensure Client implements AIProvider
var _ interfaces.AIProvider = (*Client)(nil)
