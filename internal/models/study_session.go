package models

import "time"

const SessionTypeReview = "review"

type StudySession struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	DeckID         string     `json:"deckId"`
	SessionType    string     `json:"sessionType"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	CardsReviewed  int        `json:"cardsReviewed"`
	CorrectAnswers int        `json:"correctAnswers"`
	PointsEarned   int        `json:"pointsEarned"`
}

// Open reports whether the session still awaits completion.
func (s StudySession) Open() bool {
	return s.CompletedAt == nil
}

type CardResult struct {
	CardID  string `json:"cardId"`
	Correct bool   `json:"correct"`
}

// SessionCompletion is the write set applied atomically when a session completes.
type SessionCompletion struct {
	SessionID      string
	UserID         string
	DeckID         string
	CardsReviewed  int
	CorrectAnswers int
	PointsEarned   int
	CardResults    []CardResult
	CompletedAt    time.Time
}

// StudyCard is the card view handed out when a session starts.
type StudyCard struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
}

type SessionStart struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deckId"`
	StartedAt time.Time `json:"startedAt"`
}

// StartedSession is returned by a session start: the new session and the
// deck's cards in study order.
type StartedSession struct {
	Session SessionStart `json:"session"`
	Cards   []StudyCard  `json:"cards"`
}

type SessionSummary struct {
	ID             string    `json:"id"`
	CardsReviewed  int       `json:"cardsReviewed"`
	CorrectAnswers int       `json:"correctAnswers"`
	PointsEarned   int       `json:"pointsEarned"`
	Accuracy       float64   `json:"accuracy"`
	CompletedAt    time.Time `json:"completedAt"`
}
