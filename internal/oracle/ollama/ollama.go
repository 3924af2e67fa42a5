// Package ollama implements oracle.Client on a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// Client sends single-turn, non-streaming chat requests.
type Client struct {
	client *api.Client
	model  string
}

// Opts holds parameters for creating a Client.
type Opts struct {
	Host       string // e.g. http://localhost:11434
	Model      string
	HTTPClient *http.Client
}

// New creates a Client.
func New(opts Opts) (*Client, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("ollama: host is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	u, err := url.Parse(opts.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ollama: invalid host %q", opts.Host)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{client: api.NewClient(u, hc), model: opts.Model}, nil
}

// Complete implements oracle.Client.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}
	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: chat: %w", err)
	}
	return resp.Message.Content, nil
}

// Name implements oracle.Client.
func (c *Client) Name() string { return "ollama" }
