package models

import "time"

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	TotalPoints   int       `json:"totalPoints"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DisplayName is the name shown on leaderboards.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

const (
	MimeTypeText = "text/plain"
	MimeTypePDF  = "application/pdf"

	ProcessingStatusCompleted = "completed"
)

type Document struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Filename         string    `json:"filename"`
	OriginalName     string    `json:"originalName"`
	FileSize         int64     `json:"fileSize"`
	MimeType         string    `json:"mimeType"`
	StoragePath      string    `json:"-"`
	ExtractedText    string    `json:"-"`
	ProcessingStatus string    `json:"processingStatus"`
	CreatedAt        time.Time `json:"createdAt"`
}
