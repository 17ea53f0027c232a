package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Rank orders difficulties so that harder cards compare greater.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyHard:
		return 3
	case DifficultyMedium:
		return 2
	case DifficultyEasy:
		return 1
	default:
		return 0
	}
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	return d.Rank() > 0
}

type Deck struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DocumentID   *string   `json:"documentId,omitempty"`
	DocumentName string    `json:"documentName,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	TotalCards   int       `json:"totalCards"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Card struct {
	ID             string     `json:"id"`
	DeckID         string     `json:"deckId"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Difficulty     Difficulty `json:"difficulty"`
	TimesReviewed  int        `json:"timesReviewed"`
	CorrectAnswers int        `json:"correctAnswers"`
	LastReviewedAt *time.Time `json:"lastReviewedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// CardPatch carries a partial card edit; nil fields are left unchanged.
type CardPatch struct {
	Question *string
	Answer   *string
}

// GeneratedCard is a question/answer pair produced from document text.
type GeneratedCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type DeckWithCards struct {
	Deck  Deck   `json:"deck"`
	Cards []Card `json:"cards"`
}
