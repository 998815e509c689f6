package llm

import "context"

// MockProvider stands in when no backend is configured. Every call fails
// with ErrNotConfigured so callers take their fail-safe path.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Complete(ctx context.Context, _ Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrNotConfigured
}
