package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

const cardColumns = `id, deck_id, question, answer, difficulty, times_reviewed, correct_answers, last_reviewed_at, created_at, updated_at`

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) ListByDeck(ctx context.Context, deckID string) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%s", deckID)

	rows, err := r.db.QueryContext(ctx, `
SELECT `+cardColumns+`
FROM cards
WHERE deck_id = ?
ORDER BY created_at, rowid
`, deckID)
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, *c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%s", id)

	c, err := scanCard(r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return c, nil
}

func (r *cardRepository) OwnedBy(ctx context.Context, cardID, userID string) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	var one int
	err := r.db.QueryRowContext(ctx, `
SELECT 1
FROM cards c
JOIN decks d ON d.id = c.deck_id
WHERE c.id = ? AND d.user_id = ?
`, cardID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		log.Error("failed to check card ownership: %v", err)
		return false, err
	}
	return true, nil
}

// Update applies the non-nil fields of patch. An empty patch only touches updated_at.
func (r *cardRepository) Update(ctx context.Context, id string, patch models.CardPatch, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card: id=%s", id)

	q := sqlBuilder.Update("cards").Set("updated_at", at).Where("id = ?", id)
	if patch.Question != nil {
		q = q.Set("question", *patch.Question)
	}
	if patch.Answer != nil {
		q = q.Set("answer", *patch.Answer)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update card: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanCard(row rowScanner) (*models.Card, error) {
	var c models.Card
	var difficulty string
	var lastReviewed sql.NullTime
	err := row.Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer, &difficulty, &c.TimesReviewed,
		&c.CorrectAnswers, &lastReviewed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Difficulty = models.Difficulty(difficulty)
	if lastReviewed.Valid {
		t := lastReviewed.Time
		c.LastReviewedAt = &t
	}
	return &c, nil
}
