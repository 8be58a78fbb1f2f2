package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crownstage/pageant-system/config"
	"github.com/crownstage/pageant-system/db"
	"github.com/crownstage/pageant-system/handlers"
	"github.com/crownstage/pageant-system/live"
	"github.com/crownstage/pageant-system/pricing"
	"github.com/crownstage/pageant-system/repositories"
	api "github.com/crownstage/pageant-system/routes"
	"github.com/crownstage/pageant-system/services"
	"github.com/crownstage/pageant-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second // How often the scheduler runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	roundRepo := repositories.NewPostgresVotingRoundRepository(dbConn)
	nomineeRepo := repositories.NewPostgresNomineeRepository(dbConn)
	contestantRepo := repositories.NewPostgresContestantRepository(dbConn)
	judgeRepo := repositories.NewPostgresJudgeRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	emailService := services.NewEmailService(cfg)

	competitionService := services.NewCompetitionService(
		dbConn, // Pass dbConn for transaction management
		competitionRepo,
		roundRepo,
		judgeRepo,
		userRepo,
		cloudflareUploader,
		wsHub,
		emailService,
		logger,
	)
	nomineeService := services.NewNomineeService(
		nomineeRepo,
		contestantRepo,
		emailService,
		logger,
	)
	contestantService := services.NewContestantService(
		contestantRepo,
		competitionRepo,
		cloudflareUploader,
		logger,
	)
	voteService, err := services.NewVoteService(
		dbConn,
		competitionRepo,
		roundRepo,
		contestantRepo,
		pricing.DefaultTiers,
		wsHub,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize vote service", slog.Any("error", err))
		os.Exit(1)
	}
	judgeService := services.NewJudgeService(judgeRepo, competitionRepo)
	logger.Info("Services initialized")

	// Запуск планировщика автоматических переходов статусов конкурсов
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Competition status update scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker
		if err := competitionService.AutoUpdateCompetitionStatuses(context.Background()); err != nil {
			logger.Error("Scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := competitionService.AutoUpdateCompetitionStatuses(context.Background()); err != nil {
				logger.Error("Scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	competitionHandler := handlers.NewCompetitionHandler(competitionService)
	nomineeHandler := handlers.NewNomineeHandler(nomineeService)
	contestantHandler := handlers.NewContestantHandler(contestantService)
	voteHandler := handlers.NewVoteHandler(voteService)
	judgeHandler := handlers.NewJudgeHandler(judgeService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		competitionHandler,
		nomineeHandler,
		contestantHandler,
		voteHandler,
		judgeHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
