package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashgenius/internal/db"
	"github.com/vytor/flashgenius/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// A single connection is used so every query sees the same in-memory database.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), sqlDB), "failed to apply migrations")
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// InsertUser writes a user row directly and returns it.
func InsertUser(t *testing.T, sqlDB *sql.DB, email string, points int) models.User {
	now := time.Now().UTC()
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     email,
		TotalPoints:  points,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := sqlDB.Exec(`
INSERT INTO users (id, email, password_hash, first_name, last_name, total_points, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.TotalPoints, u.CreatedAt, u.UpdatedAt)
	require.NoError(t, err)
	return u
}

// InsertDeck writes a deck with the given cards (difficulty defaults to medium).
// Cards get strictly increasing created_at values in slice order.
func InsertDeck(t *testing.T, sqlDB *sql.DB, userID string, cards ...models.Card) (models.Deck, []models.Card) {
	now := time.Now().UTC()
	deck := models.Deck{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      "Deck",
		TotalCards: len(cards),
		CreatedAt:  now,
	}
	_, err := sqlDB.Exec(`INSERT INTO decks (id, user_id, title, description, total_cards, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		deck.ID, deck.UserID, deck.Title, deck.Description, deck.TotalCards, deck.CreatedAt)
	require.NoError(t, err)

	out := make([]models.Card, 0, len(cards))
	for i, c := range cards {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Difficulty == "" {
			c.Difficulty = models.DifficultyMedium
		}
		if c.Question == "" {
			c.Question = "Question?"
		}
		if c.Answer == "" {
			c.Answer = "Answer."
		}
		c.DeckID = deck.ID
		c.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		c.UpdatedAt = c.CreatedAt
		_, err := sqlDB.Exec(`
INSERT INTO cards (id, deck_id, question, answer, difficulty, times_reviewed, correct_answers, last_reviewed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.DeckID, c.Question, c.Answer, string(c.Difficulty), c.TimesReviewed, c.CorrectAnswers, c.LastReviewedAt, c.CreatedAt, c.UpdatedAt)
		require.NoError(t, err)
		out = append(out, c)
	}
	return deck, out
}
