package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/cache"
	"github.com/SAP-F-2025/grading-service/internal/config"
	"github.com/SAP-F-2025/grading-service/internal/handlers"
	"github.com/SAP-F-2025/grading-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/grading-service/internal/services"
	"github.com/SAP-F-2025/grading-service/internal/utils"
	"github.com/SAP-F-2025/grading-service/internal/validator"
	"github.com/SAP-F-2025/grading-service/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger("production", "error").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	appLogger := utils.NewSlogLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Dependencies

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", "error", err)
		}
	}()

	repo := postgres.NewRepository(db)
	gradebookCache := cache.NewRedisCache(redisClient, logger)
	validate := validator.New()

	gradingService := services.NewGradingService(repo, gradebookCache, publisher, logger, validate)
	gradebookService := services.NewGradebookService(repo, gradebookCache, publisher, logger, validate, cfg.GradebookCacheTTL)

	var verifier handlers.TokenVerifier
	if cfg.Casdoor.Enabled() {
		logger.Info("Verifying tokens with Casdoor", "endpoint", cfg.Casdoor.Endpoint)
		verifier = handlers.NewCasdoorVerifier(cfg.Casdoor)
	} else {
		logger.Info("Verifying locally signed tokens", "issuer", cfg.JWT.Issuer)
		verifier = handlers.NewHMACVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	}

	// =========================================================================
	// Background workers

	if cfg.TimeoutSweepInterval > 0 {
		sweeper := services.NewTimeoutSweeper(gradingService, cfg.TimeoutSweepInterval, logger)
		go sweeper.Run(ctx)
	}

	// =========================================================================
	// HTTP server

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.NewHandlerManager(gradingService, gradebookService, verifier, repo, appLogger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Grading service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		logger.Error("Server error", "error", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Could not stop server gracefully", "error", err)
		if err := server.Close(); err != nil {
			logger.Error("Could not force stop server", "error", err)
		}
	}
	logger.Info("Grading service stopped")
}
