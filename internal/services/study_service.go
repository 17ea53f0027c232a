package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/flashcard"
	"github.com/vytor/flashgenius/internal/jobs"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/metrics"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

// CompleteSessionInput is the client's report of a finished review pass.
type CompleteSessionInput struct {
	CardsReviewed  int
	CorrectAnswers int
	CardResults    []models.CardResult
}

// StudyService runs study sessions: ordering cards, scoring and crediting points
type StudyService interface {
	StartSession(ctx context.Context, userID, deckID string) (*models.StartedSession, error)
	CompleteSession(ctx context.Context, userID, sessionID string, in CompleteSessionInput) (*models.SessionSummary, error)
}

type studyService struct {
	decks    repository.DeckRepository
	cards    repository.CardRepository
	sessions repository.StudySessionRepository
	queue    jobs.JobQueue
	now      func() time.Time
}

// NewStudyService creates a new StudyService
func NewStudyService(
	decks repository.DeckRepository,
	cards repository.CardRepository,
	sessions repository.StudySessionRepository,
	queue jobs.JobQueue,
) StudyService {
	return &studyService{
		decks:    decks,
		cards:    cards,
		sessions: sessions,
		queue:    queue,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *studyService) StartSession(ctx context.Context, userID, deckID string) (*models.StartedSession, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting study session: deck_id=%s", deckID)

	deck, err := s.decks.GetForUser(ctx, deckID, userID)
	if err != nil {
		log.Error("failed to load deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	cards, err := s.cards.ListByDeck(ctx, deck.ID)
	if err != nil {
		log.Error("failed to load deck cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	session := models.StudySession{
		ID:          uuid.NewString(),
		UserID:      userID,
		DeckID:      deck.ID,
		SessionType: models.SessionTypeReview,
		StartedAt:   s.now(),
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		log.Error("failed to insert study session: %v", err)
		return nil, errors.NewInternalError(err)
	}
	metrics.SessionsStarted.Inc()

	ordered := flashcard.OrderForStudy(cards)
	out := &models.StartedSession{
		Session: models.SessionStart{ID: session.ID, DeckID: session.DeckID, StartedAt: session.StartedAt},
		Cards:   make([]models.StudyCard, 0, len(ordered)),
	}
	for _, c := range ordered {
		out.Cards = append(out.Cards, models.StudyCard{
			ID:         c.ID,
			Question:   c.Question,
			Answer:     c.Answer,
			Difficulty: c.Difficulty,
		})
	}

	log.Info("study session started: session_id=%s, cards=%d", session.ID, len(out.Cards))
	return out, nil
}

func (s *studyService) CompleteSession(ctx context.Context, userID, sessionID string, in CompleteSessionInput) (*models.SessionSummary, error) {
	log := logger.FromContext(ctx).WithField("session_id", sessionID)
	log.Debug("completing study session: reviewed=%d, correct=%d, results=%d",
		in.CardsReviewed, in.CorrectAnswers, len(in.CardResults))

	session, err := s.sessions.GetForUser(ctx, sessionID, userID)
	if err != nil {
		log.Error("failed to load study session: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if session == nil {
		return nil, errors.NewNotFoundError("study session", sessionID)
	}

	if fieldErrs := validateCounts(in); len(fieldErrs) > 0 {
		return nil, errors.NewValidationErrors(fieldErrs)
	}

	if !session.Open() {
		log.Info("study session already completed, returning stored summary")
		return summaryOf(session), nil
	}

	if err := s.validateAgainstDeck(ctx, session.DeckID, in); err != nil {
		return nil, err
	}

	score := flashcard.ScoreSession(in.CardsReviewed, in.CorrectAnswers)
	completion := models.SessionCompletion{
		SessionID:      session.ID,
		UserID:         userID,
		DeckID:         session.DeckID,
		CardsReviewed:  in.CardsReviewed,
		CorrectAnswers: in.CorrectAnswers,
		PointsEarned:   score.Points,
		CardResults:    in.CardResults,
		CompletedAt:    s.now(),
	}

	applied, err := s.sessions.Complete(ctx, completion)
	if err != nil {
		log.Error("failed to complete study session: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if !applied {
		// Lost a race with a concurrent completion; report what the winner stored.
		log.Info("study session completed concurrently, returning stored summary")
		stored, err := s.sessions.GetForUser(ctx, sessionID, userID)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		if stored == nil {
			return nil, errors.NewNotFoundError("study session", sessionID)
		}
		return summaryOf(stored), nil
	}

	metrics.SessionsCompleted.Inc()
	metrics.PointsAwarded.Add(float64(score.Points))
	if err := s.queue.EnqueueLeaderboardRefresh(); err != nil {
		log.Warn("failed to enqueue leaderboard refresh: %v", err)
	}

	log.Info("study session completed: points=%d, accuracy=%.2f", score.Points, score.Accuracy)
	return &models.SessionSummary{
		ID:             session.ID,
		CardsReviewed:  completion.CardsReviewed,
		CorrectAnswers: completion.CorrectAnswers,
		PointsEarned:   completion.PointsEarned,
		Accuracy:       score.Accuracy,
		CompletedAt:    completion.CompletedAt,
	}, nil
}

func validateCounts(in CompleteSessionInput) []errors.FieldError {
	var out []errors.FieldError
	if in.CardsReviewed < 0 {
		out = append(out, errors.FieldError{Field: "cardsReviewed", Reason: "must be >= 0"})
	}
	if in.CorrectAnswers < 0 {
		out = append(out, errors.FieldError{Field: "correctAnswers", Reason: "must be >= 0"})
	}
	if in.CorrectAnswers > in.CardsReviewed {
		out = append(out, errors.FieldError{Field: "correctAnswers", Reason: "must not exceed cardsReviewed"})
	}
	return out
}

// validateAgainstDeck bounds the reported counts by what the session could
// have reviewed and checks every card result belongs to the deck once.
func (s *studyService) validateAgainstDeck(ctx context.Context, deckID string, in CompleteSessionInput) error {
	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load deck cards: %v", err)
		return errors.NewInternalError(err)
	}

	var fieldErrs []errors.FieldError
	if in.CardsReviewed > len(cards) {
		fieldErrs = append(fieldErrs, errors.FieldError{
			Field:  "cardsReviewed",
			Reason: fmt.Sprintf("must not exceed the deck's %d cards", len(cards)),
		})
	}
	if len(in.CardResults) > 0 && in.CardsReviewed > len(in.CardResults) {
		fieldErrs = append(fieldErrs, errors.FieldError{
			Field:  "cardsReviewed",
			Reason: fmt.Sprintf("must not exceed the %d card results", len(in.CardResults)),
		})
	}

	inDeck := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		inDeck[c.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(in.CardResults))
	for i, r := range in.CardResults {
		field := fmt.Sprintf("cardResults[%d].cardId", i)
		if _, ok := inDeck[r.CardID]; !ok {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Reason: "card does not belong to this deck"})
			continue
		}
		if _, dup := seen[r.CardID]; dup {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: field, Reason: "duplicate card"})
			continue
		}
		seen[r.CardID] = struct{}{}
	}
	if len(fieldErrs) > 0 {
		return errors.NewValidationErrors(fieldErrs)
	}
	return nil
}

func summaryOf(s *models.StudySession) *models.SessionSummary {
	out := &models.SessionSummary{
		ID:             s.ID,
		CardsReviewed:  s.CardsReviewed,
		CorrectAnswers: s.CorrectAnswers,
		PointsEarned:   s.PointsEarned,
		Accuracy:       flashcard.ScoreSession(s.CardsReviewed, s.CorrectAnswers).Accuracy,
	}
	if s.CompletedAt != nil {
		out.CompletedAt = *s.CompletedAt
	}
	return out
}
