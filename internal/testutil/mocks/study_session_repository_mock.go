package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashgenius/internal/models"
)

// MockStudySessionRepository is a mock implementation of repository.StudySessionRepository
type MockStudySessionRepository struct {
	mock.Mock
}

func (m *MockStudySessionRepository) Insert(ctx context.Context, session models.StudySession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockStudySessionRepository) GetForUser(ctx context.Context, id, userID string) (*models.StudySession, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudySession), args.Error(1)
}

func (m *MockStudySessionRepository) Complete(ctx context.Context, c models.SessionCompletion) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}
