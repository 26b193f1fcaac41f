// Package main runs the movie portal HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kinovkus/backend/config"
	"github.com/kinovkus/backend/internal/auth"
	"github.com/kinovkus/backend/internal/collections"
	"github.com/kinovkus/backend/internal/middleware"
	"github.com/kinovkus/backend/internal/moderation"
	"github.com/kinovkus/backend/internal/notifications"
	"github.com/kinovkus/backend/internal/playlists"
	"github.com/kinovkus/backend/internal/reviews"
	"github.com/kinovkus/backend/internal/worker"
	"github.com/kinovkus/backend/pkg/database"
	"github.com/kinovkus/backend/pkg/queue"
	"github.com/kinovkus/backend/pkg/redis"
	"github.com/kinovkus/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Playlists
	playlistRepo := playlists.NewRepository(pool)
	playlistHandler := playlists.NewHandler(playlistRepo)

	// Reviews
	reviewRepo := reviews.NewRepository(pool)
	reviewHandler := reviews.NewHandler(reviewRepo)

	// Notifications (inbox + cached unread badge)
	notifRepo := notifications.NewRepository(pool)
	notifCache := notifications.NewCache(rdb.Client, logger)
	notifHandler := notifications.NewHandler(notifRepo, notifCache, logger)

	// Moderation (state transitions emit notifications in the same transaction)
	moderationRepo := moderation.NewRepository(pool)
	moderationEngine := moderation.NewEngine(moderationRepo, jobQueue, logger)
	moderationHandler := moderation.NewHandler(moderationEngine)

	// Collections
	collectionRepo := collections.NewRepository(pool)
	collectionHandler := collections.NewHandler(collectionRepo)

	// Badge refresh worker (recomputes cached unread counts after moderation)
	badgeProcessor := worker.NewBadgeProcessor(notifRepo, notifCache, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Reads that degrade for anonymous callers instead of rejecting them.
	// An invalid token behaves like no token here.
	optional := router.Group("")
	optional.Use(middleware.OptionalJWT(jwtService))
	{
		optional.GET("/playlists", playlistHandler.Get)
		optional.GET("/reviews", reviewHandler.Get)
		optional.GET("/notifications", notifHandler.Get)
		optional.POST("/notifications", notifHandler.Post)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/playlists", playlistHandler.Post)
		api.DELETE("/playlists", playlistHandler.Delete)

		api.POST("/reviews", reviewHandler.Post)

		api.DELETE("/notifications", notifHandler.Delete)

		api.GET("/collections", collectionHandler.List)
		api.POST("/collections", collectionHandler.Add)
		api.DELETE("/collections", collectionHandler.Remove)

		api.GET("/moderation", middleware.RequireRole("admin"), moderationHandler.Get)
		api.POST("/moderation", middleware.RequireRole("admin"), moderationHandler.Post)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process badge worker; cmd/worker runs the same processor standalone.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go badgeProcessor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
