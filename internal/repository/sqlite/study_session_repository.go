package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

const sessionColumns = `id, user_id, deck_id, session_type, started_at, completed_at, cards_reviewed, correct_answers, points_earned`

type studySessionRepository struct {
	db *sql.DB
}

// NewStudySessionRepository creates a new StudySessionRepository implementation
func NewStudySessionRepository(db *sql.DB) repository.StudySessionRepository {
	return &studySessionRepository{db: db}
}

func (r *studySessionRepository) Insert(ctx context.Context, s models.StudySession) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting study session: id=%s, deck_id=%s", s.ID, s.DeckID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO study_sessions (`+sessionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, s.ID, s.UserID, s.DeckID, s.SessionType, s.StartedAt, s.CompletedAt, s.CardsReviewed, s.CorrectAnswers, s.PointsEarned)
	if err != nil {
		log.Error("failed to insert study session: %v", err)
	}
	return err
}

func (r *studySessionRepository) GetForUser(ctx context.Context, id, userID string) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("getting study session: id=%s, user_id=%s", id, userID)

	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("study session not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get study session: %v", err)
		return nil, err
	}
	return s, nil
}

func (r *studySessionRepository) Complete(ctx context.Context, c models.SessionCompletion) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("completing study session: id=%s, reviewed=%d, correct=%d, points=%d",
		c.SessionID, c.CardsReviewed, c.CorrectAnswers, c.PointsEarned)

	completed := false
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE study_sessions
SET completed_at = ?, cards_reviewed = ?, correct_answers = ?, points_earned = ?
WHERE id = ? AND user_id = ? AND completed_at IS NULL
`, c.CompletedAt, c.CardsReviewed, c.CorrectAnswers, c.PointsEarned, c.SessionID, c.UserID)
		if err != nil {
			return fmt.Errorf("stamp session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		if err := incrementPoints(ctx, tx, c.UserID, c.PointsEarned, c.CompletedAt); err != nil {
			return fmt.Errorf("credit points: %w", err)
		}

		if len(c.CardResults) > 0 {
			stmt, err := tx.PrepareContext(ctx, `
UPDATE cards
SET times_reviewed = times_reviewed + 1,
    correct_answers = correct_answers + ?,
    last_reviewed_at = ?,
    updated_at = ?
WHERE id = ? AND deck_id = ?
`)
			if err != nil {
				return err
			}
			defer stmt.Close()

			for _, cr := range c.CardResults {
				inc := 0
				if cr.Correct {
					inc = 1
				}
				res, err := stmt.ExecContext(ctx, inc, c.CompletedAt, c.CompletedAt, cr.CardID, c.DeckID)
				if err != nil {
					return fmt.Errorf("update card %s: %w", cr.CardID, err)
				}
				if n, _ := res.RowsAffected(); n == 0 {
					return fmt.Errorf("update card %s: %w", cr.CardID, sql.ErrNoRows)
				}
			}
		}

		completed = true
		return nil
	})
	if err != nil {
		log.Error("failed to complete study session: %v", err)
		return false, err
	}
	if !completed {
		log.Debug("study session already completed: id=%s", c.SessionID)
	}
	return completed, nil
}

func scanSession(row rowScanner) (*models.StudySession, error) {
	var s models.StudySession
	var completedAt sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.DeckID, &s.SessionType, &s.StartedAt, &completedAt,
		&s.CardsReviewed, &s.CorrectAnswers, &s.PointsEarned)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}
