// Package deepseek provides the DeepSeek premium provider adapter.
// DeepSeek exposes an OpenAI-compatible chat API, so the adapter reuses
// the OpenAI SDK pointed at the DeepSeek endpoint.
package deepseek

import (
	"context"
	"fmt"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
	"github.com/mingmanhk/deepticker/internal/providers"
)

const (
	DefaultModel   = "deepseek-chat"
	DefaultBaseURL = "https://api.deepseek.com/v1"
)

// Client implements the AIProvider interface for DeepSeek.
type Client struct {
	credentials interfaces.CredentialStore
	model       string
	baseURL     string
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

// WithBaseURL sets the API endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new DeepSeek provider adapter
func NewClient(credentials interfaces.CredentialStore, opts ...ClientOption) *Client {
	c := &Client{
		credentials: credentials,
		model:       DefaultModel,
		baseURL:     DefaultBaseURL,
		logger:      common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ID identifies this provider.
func (c *Client) ID() models.ProviderID {
	return models.ProviderDeepSeek
}

// Generate sends the prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	apiKey, err := c.credentials.GetSecret(ctx, models.ProviderDeepSeek)
	if err != nil {
		return "", fmt.Errorf("failed to resolve DeepSeek credential: %w", err)
	}
	if apiKey == "" {
		return "", fmt.Errorf("no DeepSeek credential stored")
	}

	cfg := gopenai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	client := gopenai.NewClientWithConfig(cfg)

	c.logger.Debug().Str("model", c.model).Msg("DeepSeek generate request")

	resp, err := client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: providers.SystemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("deepseek api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from deepseek")
	}

	return resp.Choices[0].Message.Content, nil
}

// Ensure Client implements AIProvider
var _ interfaces.AIProvider = (*Client)(nil)
