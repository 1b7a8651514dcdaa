package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/auth"
	"github.com/banya-league/banya-engine/pkg/config"
	"github.com/banya-league/banya-engine/pkg/database"
	"github.com/banya-league/banya-engine/pkg/handlers"
	"github.com/banya-league/banya-engine/pkg/logging"
	"github.com/banya-league/banya-engine/pkg/middleware"
	"github.com/banya-league/banya-engine/pkg/repositories"
	"github.com/banya-league/banya-engine/pkg/retry"
	"github.com/banya-league/banya-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Int("season_year", cfg.Season.Year),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run migrations using database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open sql connection for migrations", zap.Error(err))
	}
	err = retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
	})
	if err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	sqlDB.Close()

	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.URL(),
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*redis.Client, error) {
		return database.NewRedisClient(&cfg.Redis)
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, leaderboard caching disabled")
	}

	// Repositories
	visitRepo := repositories.NewVisitRepository(db)
	awardRepo := repositories.NewPointAwardRepository(db)
	bathRepo := repositories.NewBathRepository(db)
	userRepo := repositories.NewUserRepository(db)
	ruleRepo := repositories.NewRuleConfigRepository(db)

	// Services
	scoringService := services.NewScoringService(db, visitRepo, awardRepo, bathRepo, ruleRepo,
		cfg.Season.Year, cfg.Season.UltraUniqueStart, logger)
	visitService := services.NewVisitService(db, visitRepo, bathRepo, awardRepo, scoringService, logger)
	bathService := services.NewBathService(db, bathRepo, logger)
	leaderboardService := services.NewLeaderboardService(awardRepo, redisClient, logger)
	settingsService := services.NewSettingsService(ruleRepo, logger)
	userService := services.NewUserService(userRepo, awardRepo, logger)

	// Auth
	tokenService := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL())
	authService := auth.NewService(userRepo, tokenService, cfg.Auth.WebPassword, logger)
	authMiddleware := auth.NewMiddleware(tokenService, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewVisitsHandler(visitService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewBathsHandler(bathService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewLeaderboardHandler(leaderboardService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSettingsHandler(settingsService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	if cfg.Auth.WebPassword != "" {
		handlers.NewAuthHandler(authService, cfg, logger).RegisterRoutes(mux)
	} else {
		logger.Info("WEB_PASSWORD not set, admin login disabled")
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting banya-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
