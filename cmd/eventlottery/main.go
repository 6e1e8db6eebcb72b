package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventlottery/config"
	"eventlottery/internal/adapters/auth"
	"eventlottery/internal/adapters/messenger"
	delivery "eventlottery/internal/delivery/http"
	"eventlottery/internal/delivery/http/controllers"
	"eventlottery/internal/repository/postgres"
	"eventlottery/internal/scheduler"
	"eventlottery/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	logger.Info("database connected")

	eventRepo := postgres.NewEventRepository(db)
	entryRepo := postgres.NewEntryRepository(db)
	decisionRepo := postgres.NewDecisionRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	entrantRepo := postgres.NewEntrantRepository(db)
	registrationReader := postgres.NewRegistrationReader(db)

	transport, err := messenger.New(messenger.Config{
		Provider:    cfg.Messenger.Provider,
		FromAddress: cfg.Messenger.FromAddress,
		FromName:    cfg.Messenger.FromName,
		SES: messenger.SESConfig{
			Region:          cfg.Messenger.SESRegion,
			AccessKeyID:     cfg.Messenger.SESAccessKeyID,
			SecretAccessKey: cfg.Messenger.SESSecretAccessKey,
		},
	}, logger)
	if err != nil {
		log.Fatalf("init messenger: %v", err)
	}

	dispatcher := services.NewNotificationService(entrantRepo, notificationRepo, transport, logger, cfg.DispatchConcurrency)
	eventService := services.NewEventService(eventRepo)
	waitlistService := services.NewWaitlistService(eventRepo, entryRepo)
	lotteryService := services.NewLotteryService(eventRepo, decisionRepo, dispatcher, services.NewCryptoSeededRand(), logger)
	registrationService := services.NewRegistrationService(eventRepo, decisionRepo, registrationReader)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	// Token minting is for local development only; production tokens come
	// from the identity service.
	var tokenController *controllers.TokenController
	if cfg.Environment != "production" {
		tokenController = controllers.NewTokenController(logger, auth.NewJWTIssuer(cfg.JWTSecret))
	}

	router := delivery.NewRouter(
		logger,
		verifier,
		controllers.NewEventController(logger, eventService, registrationService),
		controllers.NewWaitlistController(logger, waitlistService),
		controllers.NewLotteryController(logger, lotteryService),
		controllers.NewNotificationController(logger, dispatcher, entrantRepo),
		tokenController,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := scheduler.New(lotteryService, cfg.SweepInterval, cfg.ResponseWindow, logger)
	go sweeper.Start(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}
