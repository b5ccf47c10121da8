package ai

import (
	"context"
	"sync"
)

// MockProvider is a scripted provider for tests. Safe for concurrent use.
type MockProvider struct {
	// Responses are returned in order; the last one repeats.
	Responses []string
	// Err, when set, is returned for every call.
	Err error

	mu       sync.Mutex
	Requests []CompletionRequest
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", ErrUnavailable
	}
	index := len(m.Requests) - 1
	if index >= len(m.Responses) {
		index = len(m.Responses) - 1
	}
	return m.Responses[index], nil
}
