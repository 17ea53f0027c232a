package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/flashgenius/internal/models"
)

// Repositories return (nil, nil) when a looked-up row does not exist.

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository handles user account data access
type UserRepository interface {
	Insert(ctx context.Context, user models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	IncrementPoints(ctx context.Context, id string, delta int) error
}

// DocumentRepository handles uploaded document data access
type DocumentRepository interface {
	Insert(ctx context.Context, doc models.Document) error
	GetForUser(ctx context.Context, id, userID string) (*models.Document, error)
	ListForUser(ctx context.Context, userID string) ([]models.Document, error)
}

// DeckRepository handles deck data access
type DeckRepository interface {
	// InsertWithCards stores a deck and its cards in one transaction.
	InsertWithCards(ctx context.Context, deck models.Deck, cards []models.Card) error
	GetForUser(ctx context.Context, id, userID string) (*models.Deck, error)
	ListForUser(ctx context.Context, userID string) ([]models.Deck, error)
}

// CardRepository handles card data access
type CardRepository interface {
	// ListByDeck returns cards in insertion order.
	ListByDeck(ctx context.Context, deckID string) ([]models.Card, error)
	Get(ctx context.Context, id string) (*models.Card, error)
	// OwnedBy reports whether the card's deck belongs to userID.
	OwnedBy(ctx context.Context, cardID, userID string) (bool, error)
	Update(ctx context.Context, id string, patch models.CardPatch, at time.Time) error
}

// StudySessionRepository handles study session data access
type StudySessionRepository interface {
	Insert(ctx context.Context, session models.StudySession) error
	GetForUser(ctx context.Context, id, userID string) (*models.StudySession, error)
	// Complete stamps an open session, credits the user and updates card statistics
	// in one transaction. It returns false without writing anything when the
	// session was already completed.
	Complete(ctx context.Context, c models.SessionCompletion) (bool, error)
}

// LeaderboardRepository runs read-only ranking aggregations
type LeaderboardRepository interface {
	TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	CountUsersAbove(ctx context.Context, points int) (int, error)
	CountUsers(ctx context.Context) (int, error)
	WeeklyTop(ctx context.Context, since time.Time, limit int) ([]models.WeeklyEntry, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
	RecentSessions(ctx context.Context, userID string, since time.Time, limit int) ([]models.StudySession, error)
}
