package models

import "time"

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"-"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

type Leaderboard struct {
	Entries         []LeaderboardEntry `json:"leaderboard"`
	CurrentUserRank int                `json:"currentUserRank"`
	TotalUsers      int                `json:"totalUsers"`
}

type WeeklyEntry struct {
	Rank              int    `json:"rank"`
	UserID            string `json:"-"`
	Name              string `json:"name"`
	WeeklyPoints      int    `json:"weeklyPoints"`
	SessionsCompleted int    `json:"sessionsCompleted"`
	IsCurrentUser     bool   `json:"isCurrentUser"`
}

type UserStats struct {
	TotalSessions       int     `json:"totalSessions"`
	TotalCardsReviewed  int     `json:"totalCardsReviewed"`
	TotalCorrectAnswers int     `json:"totalCorrectAnswers"`
	TotalPointsEarned   int     `json:"totalPointsEarned"`
	AverageAccuracy     float64 `json:"averageAccuracy"`
}

type RecentActivity struct {
	Date          time.Time `json:"date"`
	Points        int       `json:"points"`
	CardsReviewed int       `json:"cardsReviewed"`
	Accuracy      int       `json:"accuracy"`
}

type UserStatsReport struct {
	Stats          UserStats        `json:"stats"`
	RecentActivity []RecentActivity `json:"recentActivity"`
}
