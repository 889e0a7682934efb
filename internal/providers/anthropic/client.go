// Package anthropic provides the Anthropic premium provider adapter.
package anthropic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
	"github.com/mingmanhk/deepticker/internal/providers"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
)

// Client implements the AIProvider interface for Anthropic.
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

// NewClient creates a new Anthropic provider adapter
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
	return models.ProviderAnthropic
}

// Generate sends the prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	apiKey, err := c.credentials.GetSecret(ctx, models.ProviderAnthropic)
	if err != nil {
		return "", fmt.Errorf("failed to resolve Anthropic credential: %w", err)
	}
	if apiKey == "" {
		return "", fmt.Errorf("no Anthropic credential stored")
	}

	client := sdk.NewClient(option.WithAPIKey(apiKey))

	c.logger.Debug().Str("model", c.model).Msg("Anthropic generate request")

	message, err := client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: defaultMaxTokens,
		System: []sdk.TextBlockParam{
			{Text: providers.SystemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}

	return message.Content[0].Text, nil
}

// Ensure Client implements AIProvider
var _ interfaces.AIProvider = (*Client)(nil)
