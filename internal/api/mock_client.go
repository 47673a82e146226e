package api

import (
	"context"
	"sync"
)

// MockChatClient is a mock implementation of ChatClientInterface for testing
type MockChatClient struct {
	// Mock return values
	Reply    string
	Err      error
	URL      string
	SendFunc func(ctx context.Context, message string) (string, error)

	// Call recorders
	mu          sync.Mutex
	Messages    []string
	CloseCalled bool
}

// Ensure MockChatClient implements ChatClientInterface
var _ ChatClientInterface = (*MockChatClient)(nil)

func (m *MockChatClient) SendMessage(ctx context.Context, message string) (string, error) {
	m.mu.Lock()
	m.Messages = append(m.Messages, message)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, message)
	}
	return m.Reply, m.Err
}

func (m *MockChatClient) BaseURL() string {
	return m.URL
}

func (m *MockChatClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// Calls returns the messages sent so far
func (m *MockChatClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Messages))
	copy(out, m.Messages)
	return out
}
