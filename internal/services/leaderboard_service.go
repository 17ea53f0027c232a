package services

import (
	"context"
	"math"
	"time"

	"github.com/vytor/flashgenius/internal/cache"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/metrics"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	leaderboardSize    = 50
	recentActivitySize = 10
	week               = 7 * 24 * time.Hour
)

// LeaderboardService ranks users and reports per-user study statistics
type LeaderboardService interface {
	Global(ctx context.Context, userID string) (*models.Leaderboard, error)
	Weekly(ctx context.Context, userID string) ([]models.WeeklyEntry, error)
	Stats(ctx context.Context, userID string) (*models.UserStatsReport, error)
	// RefreshLeaderboard reloads the cached top list from the database.
	RefreshLeaderboard(ctx context.Context) error
}

type leaderboardService struct {
	users repository.UserRepository
	board repository.LeaderboardRepository
	cache cache.LeaderboardCache
	now   func() time.Time
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(users repository.UserRepository, board repository.LeaderboardRepository, c cache.LeaderboardCache) LeaderboardService {
	return &leaderboardService{
		users: users,
		board: board,
		cache: c,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *leaderboardService) Global(ctx context.Context, userID string) (*models.Leaderboard, error) {
	log := logger.FromContext(ctx)
	log.Debug("building global leaderboard")

	var (
		entries []models.LeaderboardEntry
		rank    int
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.topUsers(gctx)
		return err
	})
	g.Go(func() error {
		user, err := s.users.Get(gctx, userID)
		if err != nil {
			return errors.NewInternalError(err)
		}
		if user == nil {
			return errors.NewNotFoundError("user", userID)
		}
		above, err := s.board.CountUsersAbove(gctx, user.TotalPoints)
		if err != nil {
			return errors.NewInternalError(err)
		}
		rank = above + 1
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.board.CountUsers(gctx)
		if err != nil {
			return errors.NewInternalError(err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to build leaderboard: %v", err)
		return nil, err
	}

	for i := range entries {
		entries[i].IsCurrentUser = entries[i].UserID == userID
	}
	return &models.Leaderboard{Entries: entries, CurrentUserRank: rank, TotalUsers: total}, nil
}

// topUsers serves the top list from cache, loading and caching it on a miss.
// Cache failures degrade to a direct query.
func (s *leaderboardService) topUsers(ctx context.Context) ([]models.LeaderboardEntry, error) {
	log := logger.FromContext(ctx)

	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		log.Warn("leaderboard cache read failed: %v", err)
	}
	if ok {
		metrics.LeaderboardCache.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.LeaderboardCache.WithLabelValues("miss").Inc()

	entries, err := s.board.TopUsers(ctx, leaderboardSize)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := s.cache.Set(ctx, entries); err != nil {
		log.Warn("leaderboard cache write failed: %v", err)
	}
	return entries, nil
}

func (s *leaderboardService) RefreshLeaderboard(ctx context.Context) error {
	log := logger.FromContext(ctx)

	entries, err := s.board.TopUsers(ctx, leaderboardSize)
	if err != nil {
		// Drop the stale list; readers fall back to a direct query.
		if ierr := s.cache.Invalidate(ctx); ierr != nil {
			log.Warn("leaderboard cache invalidate failed: %v", ierr)
		}
		return err
	}
	if err := s.cache.Set(ctx, entries); err != nil {
		return err
	}
	log.Debug("leaderboard cache refreshed: entries=%d", len(entries))
	return nil
}

func (s *leaderboardService) Weekly(ctx context.Context, userID string) ([]models.WeeklyEntry, error) {
	log := logger.FromContext(ctx)
	since := s.now().Add(-week)
	log.Debug("building weekly leaderboard: since=%s", since.Format(time.RFC3339))

	entries, err := s.board.WeeklyTop(ctx, since, leaderboardSize)
	if err != nil {
		log.Error("failed to build weekly leaderboard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	for i := range entries {
		entries[i].IsCurrentUser = entries[i].UserID == userID
	}
	return entries, nil
}

func (s *leaderboardService) Stats(ctx context.Context, userID string) (*models.UserStatsReport, error) {
	log := logger.FromContext(ctx)
	log.Debug("building user stats")

	var (
		stats  *models.UserStats
		recent []models.StudySession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.board.UserStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.board.RecentSessions(gctx, userID, s.now().Add(-week), recentActivitySize)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to build user stats: %v", err)
		return nil, errors.NewInternalError(err)
	}

	report := &models.UserStatsReport{
		Stats:          *stats,
		RecentActivity: make([]models.RecentActivity, 0, len(recent)),
	}
	report.Stats.AverageAccuracy = math.Round(stats.AverageAccuracy*100) / 100
	for _, sess := range recent {
		a := models.RecentActivity{
			Points:        sess.PointsEarned,
			CardsReviewed: sess.CardsReviewed,
		}
		if sess.CompletedAt != nil {
			a.Date = *sess.CompletedAt
		}
		if sess.CardsReviewed > 0 {
			a.Accuracy = int(math.Round(float64(sess.CorrectAnswers) / float64(sess.CardsReviewed) * 100))
		}
		report.RecentActivity = append(report.RecentActivity, a)
	}
	return report, nil
}
