package oracle

import (
	"context"
	"sync"
)

// MockClient implements Client for testing. Each call is answered by the
// handler and the prompt is recorded.
type MockClient struct {
	mu      sync.Mutex
	handler func(prompt string) (string, error)
	prompts []string
}

// NewMockClient creates a MockClient answering with fn.
func NewMockClient(fn func(prompt string) (string, error)) *MockClient {
	return &MockClient{handler: fn}
}

// Complete records the prompt and returns the handler's result. A cancelled
// or expired context is reported before the handler runs.
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.handler
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fn == nil {
		return "", nil
	}
	return fn(prompt)
}

// Name returns "mock".
func (m *MockClient) Name() string { return "mock" }

// Prompts returns a copy of every prompt received.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns the number of Complete calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
