package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/flashgenius/internal/services"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	AuthService        services.AuthService
	DocumentService    services.DocumentService
	DeckService        services.DeckService
	StudyService       services.StudyService
	LeaderboardService services.LeaderboardService
	ChatService        services.ChatService
	DB                 Pinger

	Version        string
	Environment    string
	CORSOrigins    []string
	MaxUploadBytes int64
	StartedAt      time.Time

	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int
	// UploadRateLimit is the number of uploads allowed per client per hour.
	UploadRateLimit int
}

func (s *Server) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"message": "FlashGenius AI API v" + s.Version,
	})
}
