// Package gemini provides the built-in default AI provider, backed by
// the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
	"github.com/mingmanhk/deepticker/internal/providers"
)

const DefaultModel = "gemini-2.0-flash"

// Client implements the AIProvider interface for Gemini. The API key is
// resolved from the credential store on every call so a credential
// change takes effect without restarting anything.
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

// NewClient creates a new Gemini provider adapter
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
	return models.ProviderGemini
}

// Generate sends the prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	apiKey, err := c.credentials.GetSecret(ctx, models.ProviderGemini)
	if err != nil {
		return "", fmt.Errorf("failed to resolve Gemini credential: %w", err)
	}
	if apiKey == "" {
		return "", fmt.Errorf("no Gemini credential stored")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c.logger.Debug().Str("model", c.model).Msg("Gemini generate request")

	contents := genai.Text(providers.SystemPrompt + "\n\n" + prompt)
	result, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements AIProvider
var _ interfaces.AIProvider = (*Client)(nil)
