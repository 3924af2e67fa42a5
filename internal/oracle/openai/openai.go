// Package openai implements oracle.Client on the OpenAI Chat Completions API.
// BaseURL lets it target any OpenAI-compatible endpoint.
package openai

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client sends single-turn prompts through Chat Completions.
type Client struct {
	client openaisdk.Client
	model  string
}

// Opts holds parameters for creating a Client.
type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates a Client. Retries are disabled in the SDK; the oracle adapter
// owns retry policy.
func New(opts Opts) (*Client, error) {
	if opts.APIKey == "" && opts.BaseURL == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &Client{
		client: openaisdk.NewClient(reqOpts...),
		model:  opts.Model,
	}, nil
}

// Complete implements oracle.Client.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Name implements oracle.Client.
func (c *Client) Name() string { return "openai" }

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }
