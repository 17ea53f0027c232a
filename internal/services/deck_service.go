package services

import (
	"context"
	"strings"
	"time"

	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

// DeckService handles deck browsing and card edits
type DeckService interface {
	ListDecks(ctx context.Context, userID string) ([]models.Deck, error)
	DeckCards(ctx context.Context, userID, deckID string) (*models.DeckWithCards, error)
	UpdateCard(ctx context.Context, userID, cardID string, patch models.CardPatch) (*models.Card, error)
}

type deckService struct {
	decks repository.DeckRepository
	cards repository.CardRepository
	now   func() time.Time
}

// NewDeckService creates a new DeckService
func NewDeckService(decks repository.DeckRepository, cards repository.CardRepository) DeckService {
	return &deckService{
		decks: decks,
		cards: cards,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *deckService) ListDecks(ctx context.Context, userID string) ([]models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing decks")

	decks, err := s.decks.ListForUser(ctx, userID)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) DeckCards(ctx context.Context, userID, deckID string) (*models.DeckWithCards, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting deck cards: deck_id=%s", deckID)

	deck, err := s.decks.GetForUser(ctx, deckID, userID)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	cards, err := s.cards.ListByDeck(ctx, deck.ID)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &models.DeckWithCards{Deck: *deck, Cards: cards}, nil
}

// UpdateCard edits a card's text. Nil patch fields are left alone; a supplied
// field that is blank after trimming is rejected.
func (s *deckService) UpdateCard(ctx context.Context, userID, cardID string, patch models.CardPatch) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating card: card_id=%s", cardID)

	var fieldErrs []errors.FieldError
	clean := models.CardPatch{}
	if patch.Question != nil {
		q := strings.TrimSpace(*patch.Question)
		if q == "" {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "question", Reason: "must not be empty"})
		}
		clean.Question = &q
	}
	if patch.Answer != nil {
		a := strings.TrimSpace(*patch.Answer)
		if a == "" {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: "answer", Reason: "must not be empty"})
		}
		clean.Answer = &a
	}

	owned, err := s.cards.OwnedBy(ctx, cardID, userID)
	if err != nil {
		log.Error("failed to check card ownership: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if !owned {
		return nil, errors.NewNotFoundError("card", cardID)
	}
	if len(fieldErrs) > 0 {
		return nil, errors.NewValidationErrors(fieldErrs)
	}

	if err := s.cards.Update(ctx, cardID, clean, s.now()); err != nil {
		log.Error("failed to update card: %v", err)
		return nil, errors.NewInternalError(err)
	}

	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		log.Error("failed to reload card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", cardID)
	}
	return card, nil
}
