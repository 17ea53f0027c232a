package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashgenius/internal/models"
)

// MockDeckRepository is a mock implementation of repository.DeckRepository
type MockDeckRepository struct {
	mock.Mock
}

func (m *MockDeckRepository) InsertWithCards(ctx context.Context, deck models.Deck, cards []models.Card) error {
	args := m.Called(ctx, deck, cards)
	return args.Error(0)
}

func (m *MockDeckRepository) GetForUser(ctx context.Context, id, userID string) (*models.Deck, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deck), args.Error(1)
}

func (m *MockDeckRepository) ListForUser(ctx context.Context, userID string) ([]models.Deck, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deck), args.Error(1)
}

// MockCardRepository is a mock implementation of repository.CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) ListByDeck(ctx context.Context, deckID string) ([]models.Card, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *MockCardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardRepository) OwnedBy(ctx context.Context, cardID, userID string) (bool, error) {
	args := m.Called(ctx, cardID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardRepository) Update(ctx context.Context, id string, patch models.CardPatch, at time.Time) error {
	args := m.Called(ctx, id, patch, at)
	return args.Error(0)
}
