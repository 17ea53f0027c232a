package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 30 * time.Second

func (s *Server) production() bool {
	return strings.EqualFold(s.Environment, "production")
}

func (s *Server) Routes() http.Handler {
	apiLimiter := newRateLimiter("api", s.RateLimitMax, s.RateLimitWindow)
	authLimiter := newRateLimiter("auth", s.AuthRateLimitMax, s.RateLimitWindow)
	uploadLimiter := newRateLimiter("upload", s.UploadRateLimit, time.Hour)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(metricsMiddleware)
	r.Use(securityHeadersMiddleware(s.production()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/health", s.handleHealth)
	r.Get("/health/detailed", s.handleHealthDetailed)
	r.Get("/health/ready", s.handleReady)
	r.Get("/health/live", s.handleLive)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Get("/", s.handleAPIRoot)
		r.Get("/health", s.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Use(timeoutMiddleware(requestTimeout))
			r.With(authLimiter.Middleware).Post("/register", s.handleRegister)
			r.With(authLimiter.Middleware).Post("/login", s.handleLogin)
			r.With(s.requireAuth).Get("/profile", s.handleProfile)
		})

		// Upload and generation run without a request timeout; generation
		// bounds its own upstream calls.
		r.Route("/documents", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListDocuments)
			r.With(uploadLimiter.Middleware).Post("/upload", s.handleUploadDocument)
			r.Post("/{documentID}/generate-flashcards", s.handleGenerateFlashcards)
		})

		r.Route("/flashcards", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(timeoutMiddleware(requestTimeout))
			r.Get("/decks", s.handleDecks)
			r.Get("/decks/{deckID}/cards", s.handleDeckCards)
			r.Post("/decks/{deckID}/study-session", s.handleStartSession)
			r.Put("/study-sessions/{sessionID}/complete", s.handleCompleteSession)
			r.Put("/cards/{cardID}", s.handleUpdateCard)
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(timeoutMiddleware(requestTimeout))
			r.Get("/", s.handleLeaderboard)
			r.Get("/weekly", s.handleWeeklyLeaderboard)
			r.Get("/stats", s.handleUserStats)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/health", s.handleChatHealth)
			r.With(s.requireAuth).Post("/message", s.handleChatMessage)
		})
	})

	return r
}
