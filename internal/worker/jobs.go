package worker

import "context"

// LeaderboardRefresher rebuilds the cached leaderboard.
// Declared here so the worker package does not import services.
type LeaderboardRefresher interface {
	RefreshLeaderboard(ctx context.Context) error
}

type RefreshLeaderboardJob struct {
	Refresher LeaderboardRefresher
}

func (j *RefreshLeaderboardJob) Name() string { return "refresh_leaderboard" }

func (j *RefreshLeaderboardJob) Run(ctx context.Context) error {
	return j.Refresher.RefreshLeaderboard(ctx)
}
