package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted generation client for tests.
type MockClient struct {
	// GenerateFunc supplies the scripted behavior. When nil, every call
	// returns DefaultResponse.
	GenerateFunc    func(ctx context.Context, req Request) (string, error)
	DefaultResponse string

	mu    sync.Mutex
	calls []Request
}

// Generate records the request and runs the scripted behavior.
func (m *MockClient) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return m.DefaultResponse, nil
}

// Calls returns a copy of all requests seen so far.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many requests were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
