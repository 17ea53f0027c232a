package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/testutil/mocks"
)

type DeckServiceSuite struct {
	suite.Suite
	decks *mocks.MockDeckRepository
	cards *mocks.MockCardRepository
	svc   *deckService
	ctx   context.Context
}

func (s *DeckServiceSuite) SetupTest() {
	s.decks = new(mocks.MockDeckRepository)
	s.cards = new(mocks.MockCardRepository)
	s.svc = NewDeckService(s.decks, s.cards).(*deckService)
	s.svc.now = func() time.Time { return fixedNow }
	s.ctx = context.Background()
}

func strPtr(v string) *string { return &v }

func (s *DeckServiceSuite) TestListDecks() {
	decks := []models.Deck{{ID: "d2"}, {ID: "d1"}}
	s.decks.On("ListForUser", s.ctx, "user-1").Return(decks, nil)

	got, err := s.svc.ListDecks(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(decks, got)
}

func (s *DeckServiceSuite) TestDeckCards_NotOwned() {
	s.decks.On("GetForUser", s.ctx, "deck-1", "user-2").Return(nil, nil)

	_, err := s.svc.DeckCards(s.ctx, "user-2", "deck-1")
	s.True(errors.HasCode(err, errors.ErrCodeDeckNotFound))
	s.cards.AssertNotCalled(s.T(), "ListByDeck", mock.Anything, mock.Anything)
}

func (s *DeckServiceSuite) TestDeckCards() {
	s.decks.On("GetForUser", s.ctx, "deck-1", "user-1").Return(&models.Deck{ID: "deck-1", Title: "Biology"}, nil)
	s.cards.On("ListByDeck", s.ctx, "deck-1").Return([]models.Card{{ID: "c1"}}, nil)

	got, err := s.svc.DeckCards(s.ctx, "user-1", "deck-1")
	s.Require().NoError(err)
	s.Equal("Biology", got.Deck.Title)
	s.Len(got.Cards, 1)
}

func (s *DeckServiceSuite) TestUpdateCard_TrimsAndReloads() {
	s.cards.On("OwnedBy", s.ctx, "c1", "user-1").Return(true, nil)
	s.cards.On("Update", s.ctx, "c1", mock.MatchedBy(func(p models.CardPatch) bool {
		return p.Question != nil && *p.Question == "What is ATP?" && p.Answer == nil
	}), fixedNow).Return(nil)
	s.cards.On("Get", s.ctx, "c1").Return(&models.Card{ID: "c1", Question: "What is ATP?"}, nil)

	card, err := s.svc.UpdateCard(s.ctx, "user-1", "c1", models.CardPatch{Question: strPtr("  What is ATP?  ")})
	s.Require().NoError(err)
	s.Equal("What is ATP?", card.Question)
	s.cards.AssertExpectations(s.T())
}

func (s *DeckServiceSuite) TestUpdateCard_BlankFieldRejected() {
	s.cards.On("OwnedBy", s.ctx, "c1", "user-1").Return(true, nil)

	_, err := s.svc.UpdateCard(s.ctx, "user-1", "c1", models.CardPatch{Answer: strPtr("   ")})
	s.True(errors.HasCode(err, errors.ErrCodeValidation))
	s.cards.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *DeckServiceSuite) TestUpdateCard_ForeignCardIsNotFound() {
	s.cards.On("OwnedBy", s.ctx, "c1", "user-2").Return(false, nil)

	_, err := s.svc.UpdateCard(s.ctx, "user-2", "c1", models.CardPatch{Answer: strPtr("")})
	s.True(errors.HasCode(err, errors.ErrCodeCardNotFound))
}

func TestDeckServiceSuite(t *testing.T) {
	suite.Run(t, new(DeckServiceSuite))
}
