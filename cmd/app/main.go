package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ecolearn_backend/internal/api"
	"ecolearn_backend/internal/middleware"
	"ecolearn_backend/internal/repository"
	"ecolearn_backend/internal/service"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	bus := service.NewEventBus()

	notificationService := service.NewNotificationService(repo, bus)
	pointsService := service.NewPointsService(repo, notificationService, service.PointsConfig{
		LessonPoints:  cfg.Points.LessonPoints,
		QuizMaxPoints: cfg.Points.QuizMaxPoints,
	})
	streakService := service.NewStreakService(repo)
	badgeService := service.NewBadgeService(repo, pointsService, notificationService)
	taskService := service.NewTaskService(repo, pointsService, streakService, badgeService, notificationService)
	leaderboardService := service.NewLeaderboardService(repo,
		time.Duration(cfg.Leaderboard.SnapshotTTLSeconds)*time.Second, bus)
	userService := service.NewUserService(repo)
	reconciler := service.NewReconciler(repo, repo)

	jwtAuth := auth.NewJWTAuth(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	a.Use(middleware.TrackLastSeen(userService))
	api.NewUserRoutes(a, userService, jwtAuth)
	api.NewPointsRoutes(a, pointsService, streakService, badgeService, jwtAuth)
	api.NewBadgeRoutes(a, badgeService, jwtAuth)
	api.NewTaskRoutes(a, taskService, jwtAuth)
	api.NewLeaderboardRoutes(a, leaderboardService, jwtAuth)
	api.NewNotificationRoutes(a, notificationService, jwtAuth)
	api.NewFeedRoutes(a, bus, jwtAuth)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go leaderboardService.RunSnapshotJob(ctx,
		time.Duration(cfg.Leaderboard.RefreshIntervalSeconds)*time.Second)
	go reconciler.Run(ctx,
		time.Duration(cfg.Reconciler.IntervalSeconds)*time.Second)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
