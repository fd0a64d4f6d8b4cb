package llm

import (
	"context"
)

// MockClient is a configurable mock oracle for tests. Set CompleteFunc to
// control behavior; calls are tracked for verification.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns empty string and nil error.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// CompleteCalls counts invocations; Requests records them in order.
	CompleteCalls int
	Requests      []CompletionRequest
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-model"}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.CompleteCalls++
	m.Requests = append(m.Requests, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Reset clears call tracking.
func (m *MockClient) Reset() {
	m.CompleteCalls = 0
	m.Requests = nil
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
