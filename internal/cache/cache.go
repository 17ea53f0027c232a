package cache

import (
	"context"

	"github.com/vytor/flashgenius/internal/models"
)

// LeaderboardCache holds the global top list. Entries are stored without
// per-viewer fields; IsCurrentUser is always false on read.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]models.LeaderboardEntry, bool, error)
	Set(ctx context.Context, entries []models.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}
