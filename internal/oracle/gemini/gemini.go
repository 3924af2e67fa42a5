// Package gemini implements oracle.Client on the Gemini API via genai.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client sends single-turn prompts through GenerateContent.
type Client struct {
	client *genai.Client
	model  string
}

// Opts holds parameters for creating a Client.
type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates a Client. The genai client needs a context at construction.
func New(ctx context.Context, opts Opts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: opts.Model}, nil
}

// Complete implements oracle.Client.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: empty response")
	}
	return resp.Text(), nil
}

// Name implements oracle.Client.
func (c *Client) Name() string { return "gemini" }
