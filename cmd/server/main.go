package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/flashgenius/internal/ai"
	"github.com/vytor/flashgenius/internal/api"
	"github.com/vytor/flashgenius/internal/auth"
	"github.com/vytor/flashgenius/internal/cache"
	"github.com/vytor/flashgenius/internal/config"
	"github.com/vytor/flashgenius/internal/db"
	"github.com/vytor/flashgenius/internal/generation"
	"github.com/vytor/flashgenius/internal/jobs"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/repository/sqlite"
	"github.com/vytor/flashgenius/internal/services"
	"github.com/vytor/flashgenius/internal/storage"
	"github.com/vytor/flashgenius/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.ParseFormat(cfg.LogFormat)),
		logger.WithColors(!cfg.IsProduction()),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("FlashGenius Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("env=%s", cfg.Environment)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("ai_enabled=%t model=%s", cfg.AIEnabled(), cfg.AnthropicModel)
	log.Debug("gcs_bucket=%q upload_dir=%s", cfg.GCSBucket, cfg.UploadDir)
	log.Debug("redis_configured=%t", cfg.RedisURL != "")
	log.Debug("refresh_worker_count=%d", cfg.RefreshWorkerCount)
	log.Debug("refresh_queue_size=%d", cfg.RefreshQueueSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Blob storage
	var blobs storage.BlobStore
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			log.Error("failed to create GCS client: %v", err)
			os.Exit(1)
		}
		defer gcs.Close()
		blobs = gcs
		log.Info("storing documents in gs://%s", cfg.GCSBucket)
	} else {
		local, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			log.Error("failed to prepare upload dir: %v", err)
			os.Exit(1)
		}
		blobs = local
		log.Info("storing documents in %s", cfg.UploadDir)
	}

	// Leaderboard cache
	var leaderboardCache cache.LeaderboardCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.LeaderboardCacheTTL)
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer rc.Close()
		leaderboardCache = rc
	} else {
		leaderboardCache = cache.NewMemoryCache(cfg.LeaderboardCacheTTL)
	}

	// Repositories
	users := sqlite.NewUserRepository(database.DB)
	documents := sqlite.NewDocumentRepository(database.DB)
	decks := sqlite.NewDeckRepository(database.DB)
	cards := sqlite.NewCardRepository(database.DB)
	sessions := sqlite.NewStudySessionRepository(database.DB)
	board := sqlite.NewLeaderboardRepository(database.DB)

	aiClient := ai.New(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AITimeout)
	if !aiClient.Configured() {
		log.Warn("ANTHROPIC_API_KEY not set: flashcards use the fallback generator and chat is disabled")
	}

	// Initialize services
	leaderboardService := services.NewLeaderboardService(users, board, leaderboardCache)
	refreshPool := worker.NewPool(cfg.RefreshWorkerCount, cfg.RefreshQueueSize)
	queue := jobs.NewWorkerQueue(refreshPool, leaderboardService)

	srv := &api.Server{
		AuthService:        services.NewAuthService(users, auth.NewBcryptHasher(cfg.BcryptCost), auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)),
		DocumentService:    services.NewDocumentService(documents, decks, blobs, generation.New(aiClient, cfg.AIMaxAttempts), cfg.MaxUploadBytes),
		DeckService:        services.NewDeckService(decks, cards),
		StudyService:       services.NewStudyService(decks, cards, sessions, queue),
		LeaderboardService: leaderboardService,
		ChatService:        services.NewChatService(aiClient),
		DB:                 database,
		Version:            cfg.Version,
		Environment:        cfg.Environment,
		CORSOrigins:        cfg.CORSOrigins,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		StartedAt:          time.Now(),
		RateLimitWindow:    cfg.RateLimitWindow,
		RateLimitMax:       cfg.RateLimitMax,
		AuthRateLimitMax:   cfg.AuthRateLimitMax,
		UploadRateLimit:    cfg.UploadRateLimit,
	}

	refreshPool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping refresh pool")
	refreshPool.Stop()

	log.Info("===========================================")
	log.Info("FlashGenius Server Stopped")
	log.Info("===========================================")
}
