package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) InsertWithCards(ctx context.Context, deck models.Deck, cards []models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("inserting deck: id=%s, cards=%d", deck.ID, len(cards))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO decks (id, user_id, document_id, title, description, total_cards, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, deck.ID, deck.UserID, nullString(deck.DocumentID), deck.Title, deck.Description, deck.TotalCards, deck.CreatedAt)
		if err != nil {
			log.Error("failed to insert deck: %v", err)
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO cards (id, deck_id, question, answer, difficulty, times_reviewed, correct_answers, last_reviewed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cards {
			if _, err := stmt.ExecContext(ctx, c.ID, deck.ID, c.Question, c.Answer, string(c.Difficulty),
				c.TimesReviewed, c.CorrectAnswers, c.LastReviewedAt, c.CreatedAt, c.UpdatedAt); err != nil {
				log.Error("failed to insert card: %v", err)
				return err
			}
		}
		return nil
	})
}

func (r *deckRepository) GetForUser(ctx context.Context, id, userID string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("getting deck: id=%s, user_id=%s", id, userID)

	decks, err := r.list(ctx, squirrel.Eq{"d.id": id, "d.user_id": userID})
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	if len(decks) == 0 {
		log.Debug("deck not found: id=%s", id)
		return nil, nil
	}
	return &decks[0], nil
}

func (r *deckRepository) ListForUser(ctx context.Context, userID string) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks: user_id=%s", userID)

	decks, err := r.list(ctx, squirrel.Eq{"d.user_id": userID})
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	log.Debug("found %d decks", len(decks))
	return decks, nil
}

func (r *deckRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]models.Deck, error) {
	query, args, err := sqlBuilder.
		Select("d.id", "d.user_id", "d.document_id", "COALESCE(doc.original_name, '')", "d.title", "d.description", "d.total_cards", "d.created_at").
		From("decks d").
		LeftJoin("documents doc ON doc.id = d.document_id").
		Where(where).
		OrderBy("d.created_at DESC", "d.rowid DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decks := []models.Deck{}
	for rows.Next() {
		var d models.Deck
		var documentID sql.NullString
		if err := rows.Scan(&d.ID, &d.UserID, &documentID, &d.DocumentName, &d.Title, &d.Description, &d.TotalCards, &d.CreatedAt); err != nil {
			return nil, err
		}
		if documentID.Valid {
			d.DocumentID = &documentID.String
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}
