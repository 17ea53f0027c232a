package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
	"github.com/vytor/flashgenius/internal/repository/sqlite"
	"github.com/vytor/flashgenius/internal/testutil"
)

type LeaderboardRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.LeaderboardRepository
}

func (s *LeaderboardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewLeaderboardRepository(s.db)
}

func (s *LeaderboardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *LeaderboardRepositorySuite) insertSession(userID, deckID string, completedAt *time.Time, reviewed, correct, points int) {
	_, err := s.db.Exec(`
INSERT INTO study_sessions (id, user_id, deck_id, session_type, started_at, completed_at, cards_reviewed, correct_answers, points_earned)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, deckID, models.SessionTypeReview, time.Now().UTC().Add(-30*24*time.Hour), completedAt, reviewed, correct, points)
	s.Require().NoError(err)
}

func (s *LeaderboardRepositorySuite) TestTopUsersOrderingAndTies() {
	ctx := context.Background()
	early := testutil.InsertUser(s.T(), s.db, "early@example.com", 100)
	time.Sleep(2 * time.Millisecond)
	late := testutil.InsertUser(s.T(), s.db, "late@example.com", 100)
	top := testutil.InsertUser(s.T(), s.db, "top@example.com", 250)
	testutil.InsertUser(s.T(), s.db, "zero@example.com", 0)

	entries, err := s.repo.TopUsers(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(top.ID, entries[0].UserID)
	s.Equal(early.ID, entries[1].UserID)
	s.Equal(late.ID, entries[2].UserID)
	for i, e := range entries {
		s.Equal(i+1, e.Rank)
	}
	s.Equal("Test top@example.com", entries[0].Name)

	above, err := s.repo.CountUsersAbove(ctx, 100)
	s.Require().NoError(err)
	s.Equal(1, above)

	total, err := s.repo.CountUsers(ctx)
	s.Require().NoError(err)
	s.Equal(4, total)
}

func (s *LeaderboardRepositorySuite) TestWeeklyTopCountsRecentCompletedSessions() {
	ctx := context.Background()
	now := time.Now().UTC()
	a := testutil.InsertUser(s.T(), s.db, "a@example.com", 0)
	b := testutil.InsertUser(s.T(), s.db, "b@example.com", 0)
	deckA, _ := testutil.InsertDeck(s.T(), s.db, a.ID)
	deckB, _ := testutil.InsertDeck(s.T(), s.db, b.ID)

	recent := now.Add(-24 * time.Hour)
	old := now.Add(-10 * 24 * time.Hour)
	s.insertSession(a.ID, deckA.ID, &recent, 5, 5, 100)
	s.insertSession(a.ID, deckA.ID, &recent, 2, 1, 45)
	s.insertSession(a.ID, deckA.ID, &old, 10, 10, 150)
	s.insertSession(b.ID, deckB.ID, &recent, 1, 1, 60)
	s.insertSession(b.ID, deckB.ID, nil, 0, 0, 0)

	entries, err := s.repo.WeeklyTop(ctx, now.Add(-7*24*time.Hour), 50)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(a.ID, entries[0].UserID)
	s.Equal(145, entries[0].WeeklyPoints)
	s.Equal(2, entries[0].SessionsCompleted)
	s.Equal(b.ID, entries[1].UserID)
	s.Equal(60, entries[1].WeeklyPoints)
	s.Equal(1, entries[1].SessionsCompleted)
	s.Equal(2, entries[1].Rank)
}

func (s *LeaderboardRepositorySuite) TestUserStatsIgnoresOpenSessions() {
	ctx := context.Background()
	now := time.Now().UTC()
	u := testutil.InsertUser(s.T(), s.db, "stats@example.com", 0)
	deck, _ := testutil.InsertDeck(s.T(), s.db, u.ID)

	s.insertSession(u.ID, deck.ID, &now, 4, 3, 77)
	s.insertSession(u.ID, deck.ID, &now, 2, 1, 45)
	s.insertSession(u.ID, deck.ID, nil, 9, 9, 0)

	st, err := s.repo.UserStats(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(2, st.TotalSessions)
	s.Equal(6, st.TotalCardsReviewed)
	s.Equal(4, st.TotalCorrectAnswers)
	s.Equal(122, st.TotalPointsEarned)
	s.InDelta(0.625, st.AverageAccuracy, 1e-9)
}

func (s *LeaderboardRepositorySuite) TestUserStatsEmpty() {
	u := testutil.InsertUser(s.T(), s.db, "fresh@example.com", 0)

	st, err := s.repo.UserStats(context.Background(), u.ID)
	s.Require().NoError(err)
	s.Zero(st.TotalSessions)
	s.Zero(st.AverageAccuracy)
}

func (s *LeaderboardRepositorySuite) TestRecentSessionsNewestFirst() {
	ctx := context.Background()
	now := time.Now().UTC()
	u := testutil.InsertUser(s.T(), s.db, "recent@example.com", 0)
	deck, _ := testutil.InsertDeck(s.T(), s.db, u.ID)

	older := now.Add(-3 * time.Hour)
	newer := now.Add(-1 * time.Hour)
	stale := now.Add(-8 * 24 * time.Hour)
	s.insertSession(u.ID, deck.ID, &older, 1, 1, 60)
	s.insertSession(u.ID, deck.ID, &newer, 2, 0, 20)
	s.insertSession(u.ID, deck.ID, &stale, 3, 3, 80)

	sessions, err := s.repo.RecentSessions(ctx, u.ID, now.Add(-7*24*time.Hour), 10)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(20, sessions[0].PointsEarned)
	s.Equal(60, sessions[1].PointsEarned)
}

func (s *LeaderboardRepositorySuite) TestCutoffComparesInstantsNotText() {
	ctx := context.Background()
	cutoff := time.Date(2026, 3, 14, 9, 0, 5, 500_000_000, time.UTC)
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	u := testutil.InsertUser(s.T(), s.db, "cutoff@example.com", 0)
	deck, _ := testutil.InsertDeck(s.T(), s.db, u.ID)

	// Stored as "11:00:05+02:00": sorts after the cutoff as text, but is earlier.
	beforeOffset := cutoff.Add(-500 * time.Millisecond).In(plus2)
	beforeSubSecond := cutoff.Add(-250 * time.Millisecond)
	atCutoff := cutoff
	afterOffset := cutoff.Add(250 * time.Millisecond).In(plus2)
	s.insertSession(u.ID, deck.ID, &beforeOffset, 1, 1, 1000)
	s.insertSession(u.ID, deck.ID, &beforeSubSecond, 1, 1, 2000)
	s.insertSession(u.ID, deck.ID, &atCutoff, 1, 1, 30)
	s.insertSession(u.ID, deck.ID, &afterOffset, 1, 1, 40)

	entries, err := s.repo.WeeklyTop(ctx, cutoff, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(70, entries[0].WeeklyPoints)
	s.Equal(2, entries[0].SessionsCompleted)

	sessions, err := s.repo.RecentSessions(ctx, u.ID, cutoff, 10)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(40, sessions[0].PointsEarned)
	s.Equal(30, sessions[1].PointsEarned)
}

func TestLeaderboardRepositorySuite(t *testing.T) {
	suite.Run(t, new(LeaderboardRepositorySuite))
}
