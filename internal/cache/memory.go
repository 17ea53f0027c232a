package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vytor/flashgenius/internal/models"
)

// MemoryCache is an in-process LeaderboardCache used when no Redis URL is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries []models.LeaderboardEntry
	expires time.Time
	valid   bool
}

var _ LeaderboardCache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context) ([]models.LeaderboardEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return cloneEntries(c.entries), true, nil
}

func (c *MemoryCache) Set(_ context.Context, entries []models.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = cloneEntries(entries)
	c.expires = c.now().Add(c.ttl)
	c.valid = true
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.valid = false
	return nil
}

func cloneEntries(in []models.LeaderboardEntry) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, len(in))
	copy(out, in)
	for i := range out {
		out[i].IsCurrentUser = false
	}
	return out
}
