package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/testutil/mocks"
)

type LeaderboardServiceSuite struct {
	suite.Suite
	users *mocks.MockUserRepository
	board *mocks.MockLeaderboardRepository
	cache *mocks.MockLeaderboardCache
	svc   *leaderboardService
	ctx   context.Context
}

func (s *LeaderboardServiceSuite) SetupTest() {
	s.users = new(mocks.MockUserRepository)
	s.board = new(mocks.MockLeaderboardRepository)
	s.cache = new(mocks.MockLeaderboardCache)
	s.svc = NewLeaderboardService(s.users, s.board, s.cache).(*leaderboardService)
	s.svc.now = func() time.Time { return fixedNow }
	s.ctx = context.Background()
}

func topTwo() []models.LeaderboardEntry {
	return []models.LeaderboardEntry{
		{Rank: 1, UserID: "u-top", Name: "Grace Hopper", Points: 300},
		{Rank: 2, UserID: "u-me", Name: "Ada Lovelace", Points: 120},
	}
}

func (s *LeaderboardServiceSuite) expectRank(points, above, total int) {
	s.users.On("Get", mock.Anything, "u-me").Return(&models.User{ID: "u-me", TotalPoints: points}, nil)
	s.board.On("CountUsersAbove", mock.Anything, points).Return(above, nil)
	s.board.On("CountUsers", mock.Anything).Return(total, nil)
}

func (s *LeaderboardServiceSuite) TestGlobal_CacheMissLoadsAndStores() {
	s.cache.On("Get", mock.Anything).Return(nil, false, nil)
	s.board.On("TopUsers", mock.Anything, leaderboardSize).Return(topTwo(), nil)
	s.cache.On("Set", mock.Anything, topTwo()).Return(nil)
	s.expectRank(120, 1, 7)

	lb, err := s.svc.Global(s.ctx, "u-me")
	s.Require().NoError(err)

	s.Equal(2, lb.CurrentUserRank)
	s.Equal(7, lb.TotalUsers)
	s.Require().Len(lb.Entries, 2)
	s.False(lb.Entries[0].IsCurrentUser)
	s.True(lb.Entries[1].IsCurrentUser)
	s.cache.AssertExpectations(s.T())
}

func (s *LeaderboardServiceSuite) TestGlobal_CacheHitSkipsQuery() {
	s.cache.On("Get", mock.Anything).Return(topTwo(), true, nil)
	s.expectRank(120, 1, 2)

	lb, err := s.svc.Global(s.ctx, "u-me")
	s.Require().NoError(err)
	s.Len(lb.Entries, 2)
	s.board.AssertNotCalled(s.T(), "TopUsers", mock.Anything, mock.Anything)
}

func (s *LeaderboardServiceSuite) TestGlobal_CacheFailureDegrades() {
	s.cache.On("Get", mock.Anything).Return(nil, false, stderrors.New("redis down"))
	s.board.On("TopUsers", mock.Anything, leaderboardSize).Return(topTwo(), nil)
	s.cache.On("Set", mock.Anything, mock.Anything).Return(stderrors.New("redis down"))
	s.expectRank(120, 1, 2)

	lb, err := s.svc.Global(s.ctx, "u-me")
	s.Require().NoError(err)
	s.Len(lb.Entries, 2)
}

func (s *LeaderboardServiceSuite) TestGlobal_UserOutsideTopList() {
	s.cache.On("Get", mock.Anything).Return(topTwo(), true, nil)
	s.expectRank(0, 2, 3)

	lb, err := s.svc.Global(s.ctx, "u-me")
	s.Require().NoError(err)
	s.Equal(3, lb.CurrentUserRank)
}

func (s *LeaderboardServiceSuite) TestRefreshLeaderboard() {
	s.board.On("TopUsers", s.ctx, leaderboardSize).Return(topTwo(), nil)
	s.cache.On("Set", s.ctx, topTwo()).Return(nil)

	s.Require().NoError(s.svc.RefreshLeaderboard(s.ctx))
	s.cache.AssertExpectations(s.T())
}

func (s *LeaderboardServiceSuite) TestRefreshLeaderboardFailureInvalidatesCache() {
	s.board.On("TopUsers", s.ctx, leaderboardSize).Return(nil, stderrors.New("database is locked"))
	s.cache.On("Invalidate", s.ctx).Return(nil)

	s.Error(s.svc.RefreshLeaderboard(s.ctx))
	s.cache.AssertExpectations(s.T())
	s.cache.AssertNotCalled(s.T(), "Set", mock.Anything, mock.Anything)
}

func (s *LeaderboardServiceSuite) TestWeeklyMarksCurrentUser() {
	s.board.On("WeeklyTop", s.ctx, fixedNow.Add(-week), leaderboardSize).Return([]models.WeeklyEntry{
		{Rank: 1, UserID: "u-me", WeeklyPoints: 145, SessionsCompleted: 2},
		{Rank: 2, UserID: "u-other", WeeklyPoints: 60, SessionsCompleted: 1},
	}, nil)

	entries, err := s.svc.Weekly(s.ctx, "u-me")
	s.Require().NoError(err)
	s.True(entries[0].IsCurrentUser)
	s.False(entries[1].IsCurrentUser)
}

func (s *LeaderboardServiceSuite) TestStats() {
	done := fixedNow.Add(-2 * time.Hour)
	s.board.On("UserStats", mock.Anything, "u-me").Return(&models.UserStats{
		TotalSessions:       3,
		TotalCardsReviewed:  9,
		TotalCorrectAnswers: 6,
		TotalPointsEarned:   200,
		AverageAccuracy:     2.0 / 3.0,
	}, nil)
	s.board.On("RecentSessions", mock.Anything, "u-me", fixedNow.Add(-week), recentActivitySize).Return([]models.StudySession{
		{CompletedAt: &done, CardsReviewed: 3, CorrectAnswers: 2, PointsEarned: 63},
		{CompletedAt: &done, CardsReviewed: 0, CorrectAnswers: 0, PointsEarned: 0},
	}, nil)

	report, err := s.svc.Stats(s.ctx, "u-me")
	s.Require().NoError(err)

	s.Equal(0.67, report.Stats.AverageAccuracy)
	s.Equal(200, report.Stats.TotalPointsEarned)
	s.Require().Len(report.RecentActivity, 2)
	s.Equal(67, report.RecentActivity[0].Accuracy)
	s.Equal(63, report.RecentActivity[0].Points)
	s.True(report.RecentActivity[0].Date.Equal(done))
	s.Zero(report.RecentActivity[1].Accuracy)
}

func (s *LeaderboardServiceSuite) TestStatsRepositoryFailure() {
	s.board.On("UserStats", mock.Anything, "u-me").Return(nil, stderrors.New("boom"))
	s.board.On("RecentSessions", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	_, err := s.svc.Stats(s.ctx, "u-me")
	s.True(errors.HasCode(err, errors.ErrCodeInternal))
}

func TestLeaderboardServiceSuite(t *testing.T) {
	suite.Run(t, new(LeaderboardServiceSuite))
}
