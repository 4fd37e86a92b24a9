package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tenderly-care/diagnosis-api/internal/config"
	"github.com/tenderly-care/diagnosis-api/internal/email"
	diagnosisHandler "github.com/tenderly-care/diagnosis-api/internal/handler/diagnosis"
	healthHandler "github.com/tenderly-care/diagnosis-api/internal/handler/health"
	"github.com/tenderly-care/diagnosis-api/internal/llm"
	"github.com/tenderly-care/diagnosis-api/internal/middleware"
	"github.com/tenderly-care/diagnosis-api/internal/ratelimit"
	"github.com/tenderly-care/diagnosis-api/internal/report"
	"github.com/tenderly-care/diagnosis-api/internal/repository"
	"github.com/tenderly-care/diagnosis-api/internal/router"
	diagnosisService "github.com/tenderly-care/diagnosis-api/internal/service/diagnosis"
	"github.com/tenderly-care/diagnosis-api/pkg/auth"
	"github.com/tenderly-care/diagnosis-api/pkg/logger"
	"github.com/tenderly-care/diagnosis-api/pkg/metrics"
)

func main() {
	// Local development convenience; ignored when the file is absent.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(&logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Debug,
	})

	m := metrics.New("diagnosis_api")

	// Rate limiter backed by redis. The limiter fails open when redis is
	// down, so a broken redis degrades enforcement, not availability.
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	limiter := ratelimit.NewLimiter(
		ratelimit.NewRedisStore(redisClient),
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		appLogger,
		m,
	)

	llmClient := llm.NewOpenAIClient(cfg.OpenAI, appLogger, m)

	// Diagnosis archive. Postgres when configured, in-memory otherwise.
	var repo repository.DiagnosisRepository
	if cfg.Database.URL != "" {
		pgRepo, err := repository.NewPostgresRepository(cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pgRepo.Close()
		repo = pgRepo
	} else {
		appLogger.Warn().Msg("no database configured, using in-memory diagnosis archive")
		repo = repository.NewMemoryRepository()
	}

	var notifier diagnosisService.Notifier
	if cfg.Email.Enabled {
		notifier = email.NewService(cfg.Email, appLogger)
	}

	diagnosisSvc := diagnosisService.NewService(llmClient, repo, notifier, cfg.Disclaimer, appLogger)
	renderer := report.NewRenderer(m)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.Expiry)
	authMW := middleware.NewAuthMiddleware(jwtSvc, cfg.APIKey, appLogger)

	diagH := diagnosisHandler.NewHandler(diagnosisSvc, repo, renderer, cfg.Debug, appLogger)
	healthH := healthHandler.NewHandler(cfg.AppVersion, map[string]healthHandler.DependencyChecker{
		"openai": llmClient,
		"redis":  healthHandler.CheckerFunc(limiter.Ping),
	}, cfg.Server.HealthProbeTTL, appLogger)

	r := router.New(
		cfg,
		authMW,
		middleware.RateLimit(limiter, cfg.Debug),
		diagH,
		healthH,
		m,
		appLogger,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited properly")
}
