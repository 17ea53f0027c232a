package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashgenius/internal/ai"
)

// MockAIClient is a mock implementation of ai.ClientInterface
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) Complete(ctx context.Context, req ai.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAIClient) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}
