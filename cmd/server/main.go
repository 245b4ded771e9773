package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edufeedback/backend/internal/config"
	"github.com/edufeedback/backend/internal/database"
	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/handler"
	"github.com/edufeedback/backend/internal/logger"
	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/repository"
	"github.com/edufeedback/backend/internal/router"
	"github.com/edufeedback/backend/internal/service"
	"github.com/edufeedback/backend/internal/validator"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("auth_mode", string(cfg.AuthMode)).
		Str("log_level", cfg.LogLevel).
		Msg("Starting EduFeedback Backend")
	if !cfg.Enforced() {
		log.Warn().Msg("AUTH_MODE=open: caller identity is not verified")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Apply Migrations ──────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL, logger.Component(log, "migrate")); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	sessionRepo := repository.NewSessionRepository(rdb)
	bus := events.NewRedisBus(rdb, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, sessionRepo)
	userService := service.NewUserService(cfg, userRepo, authService, bus, logger.Component(log, "user_service"))
	feedbackService := service.NewFeedbackService(feedbackRepo, bus, logger.Component(log, "feedback_service"))
	guard := policy.NewGuard(cfg.Enforced())

	// ─── Seed Default Admin ───────────────────────────────────────────
	if _, err := userService.SeedDefaultAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default admin")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService, log),
		Feedback: handler.NewFeedbackHandler(feedbackService, guard, log),
		User:     handler.NewUserHandler(userService, log),
		WS:       handler.NewWSHandler(bus, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, guard, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	cancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
