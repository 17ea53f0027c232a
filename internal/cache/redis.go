package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
)

const leaderboardKey = "flashgenius:leaderboard:top"

// RedisCache stores the top list as JSON under a single key with a TTL.
type RedisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ LeaderboardCache = (*RedisCache)(nil)

// cachedEntry keeps the user id, which the API representation omits.
type cachedEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

// NewRedisCache connects to url (redis://...) and verifies the connection.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	b, err := c.rdb.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var cached []cachedEntry
	if err := json.Unmarshal(b, &cached); err != nil {
		logger.FromContext(ctx).WithPrefix("cache").Warn("discarding undecodable leaderboard entry: %v", err)
		return nil, false, nil
	}
	entries := make([]models.LeaderboardEntry, len(cached))
	for i, e := range cached {
		entries[i] = models.LeaderboardEntry{
			Rank:          e.Rank,
			UserID:        e.UserID,
			Name:          e.Name,
			Points:        e.Points,
			CurrentStreak: e.CurrentStreak,
			LongestStreak: e.LongestStreak,
		}
	}
	return entries, true, nil
}

func (c *RedisCache) Set(ctx context.Context, entries []models.LeaderboardEntry) error {
	cached := make([]cachedEntry, len(entries))
	for i, e := range entries {
		cached[i] = cachedEntry{
			Rank:          e.Rank,
			UserID:        e.UserID,
			Name:          e.Name,
			Points:        e.Points,
			CurrentStreak: e.CurrentStreak,
			LongestStreak: e.LongestStreak,
		}
	}
	b, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, leaderboardKey, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
