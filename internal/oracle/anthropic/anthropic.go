// Package anthropic implements oracle.Client on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens bounds each response. Oracle answers are a word or a
// short paragraph.
const DefaultMaxTokens = 1024

// Client sends single-turn prompts through the Messages API.
type Client struct {
	client    anthropicsdk.Client
	model     anthropicsdk.Model
	maxTokens int64
}

// Opts holds parameters for creating a Client.
type Opts struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

// New creates a Client.
func New(opts Opts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("anthropic: model is required")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Client{
		client:    anthropicsdk.NewClient(reqOpts...),
		model:     anthropicsdk.Model(opts.Model),
		maxTokens: maxTokens,
	}, nil
}

// Complete implements oracle.Client. Text blocks of the response are
// concatenated.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropicsdk.MessageParam{{
			Role:    anthropicsdk.MessageParamRoleUser,
			Content: []anthropicsdk.ContentBlockParamUnion{anthropicsdk.NewTextBlock(prompt)},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return b.String(), nil
}

// Name implements oracle.Client.
func (c *Client) Name() string { return "anthropic" }
