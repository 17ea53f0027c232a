package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

type leaderboardRepository struct {
	db *sql.DB
}

// NewLeaderboardRepository creates a new LeaderboardRepository implementation
func NewLeaderboardRepository(db *sql.DB) repository.LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// TopUsers ranks users by points; earlier registrations win ties.
func (r *leaderboardRepository) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("querying top users: limit=%d", limit)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, first_name, last_name, total_points, current_streak, longest_streak
FROM users
ORDER BY total_points DESC, julianday(created_at) ASC, rowid ASC
LIMIT ?
`, limit)
	if err != nil {
		log.Error("failed to query top users: %v", err)
		return nil, err
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		var first, last string
		if err := rows.Scan(&e.UserID, &first, &last, &e.Points, &e.CurrentStreak, &e.LongestStreak); err != nil {
			log.Error("failed to scan leaderboard row: %v", err)
			return nil, err
		}
		e.Name = models.User{FirstName: first, LastName: last}.DisplayName()
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *leaderboardRepository) CountUsersAbove(ctx context.Context, points int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE total_points > ?`, points).Scan(&n)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("leaderboard_repo").Error("failed to count users above: %v", err)
	}
	return n, err
}

func (r *leaderboardRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("leaderboard_repo").Error("failed to count users: %v", err)
	}
	return n, err
}

// WeeklyTop sums completed sessions since the cutoff. Timestamps are stored
// with their own offsets, so range checks compare julianday values.
func (r *leaderboardRepository) WeeklyTop(ctx context.Context, since time.Time, limit int) ([]models.WeeklyEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("querying weekly leaderboard: since=%s, limit=%d", since.Format(time.RFC3339), limit)

	query, args, err := sqlBuilder.
		Select("u.id", "u.first_name", "u.last_name", "SUM(s.points_earned) AS weekly_points", "COUNT(s.id)").
		From("study_sessions s").
		Join("users u ON u.id = s.user_id").
		Where("s.completed_at IS NOT NULL").
		Where("julianday(s.completed_at) >= julianday(?)", since.UTC()).
		GroupBy("u.id", "u.first_name", "u.last_name").
		OrderBy("weekly_points DESC", "MIN(julianday(u.created_at)) ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query weekly leaderboard: %v", err)
		return nil, err
	}
	defer rows.Close()

	entries := []models.WeeklyEntry{}
	for rows.Next() {
		var e models.WeeklyEntry
		var first, last string
		if err := rows.Scan(&e.UserID, &first, &last, &e.WeeklyPoints, &e.SessionsCompleted); err != nil {
			log.Error("failed to scan weekly row: %v", err)
			return nil, err
		}
		e.Name = models.User{FirstName: first, LastName: last}.DisplayName()
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UserStats aggregates completed sessions only. AverageAccuracy is the mean
// per-session fraction in [0, 1], unrounded.
func (r *leaderboardRepository) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("aggregating user stats: user_id=%s", userID)

	var st models.UserStats
	err := r.db.QueryRowContext(ctx, `
SELECT
    COUNT(*),
    COALESCE(SUM(cards_reviewed), 0),
    COALESCE(SUM(correct_answers), 0),
    COALESCE(SUM(points_earned), 0),
    COALESCE(AVG(CASE WHEN cards_reviewed > 0 THEN CAST(correct_answers AS REAL) / cards_reviewed ELSE 0 END), 0)
FROM study_sessions
WHERE user_id = ? AND completed_at IS NOT NULL
`, userID).Scan(&st.TotalSessions, &st.TotalCardsReviewed, &st.TotalCorrectAnswers, &st.TotalPointsEarned, &st.AverageAccuracy)
	if err != nil {
		log.Error("failed to aggregate user stats: %v", err)
		return nil, err
	}
	return &st, nil
}

func (r *leaderboardRepository) RecentSessions(ctx context.Context, userID string, since time.Time, limit int) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT `+sessionColumns+`
FROM study_sessions
WHERE user_id = ? AND completed_at IS NOT NULL AND julianday(completed_at) >= julianday(?)
ORDER BY julianday(completed_at) DESC
LIMIT ?
`, userID, since.UTC(), limit)
	if err != nil {
		log.Error("failed to query recent sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row: %v", err)
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
