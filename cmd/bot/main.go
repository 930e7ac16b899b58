package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-bot/internal/ai"
	"github.com/dvloznov/finance-bot/internal/analytics"
	"github.com/dvloznov/finance-bot/internal/api/handlers"
	"github.com/dvloznov/finance-bot/internal/api/middleware"
	"github.com/dvloznov/finance-bot/internal/bot"
	"github.com/dvloznov/finance-bot/internal/config"
	"github.com/dvloznov/finance-bot/internal/dashboard"
	"github.com/dvloznov/finance-bot/internal/extract"
	"github.com/dvloznov/finance-bot/internal/intent"
	"github.com/dvloznov/finance-bot/internal/logger"
	"github.com/dvloznov/finance-bot/internal/media"
	"github.com/dvloznov/finance-bot/internal/store"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	gen, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	st := store.New(pool, logger.Component(log, "store"))
	extractor := extract.NewService(gen, logger.Component(log, "extract"))
	classifier := intent.NewClassifier(gen, logger.Component(log, "intent"))
	analyst := analytics.NewService(gen, st, logger.Component(log, "analytics"))

	var archiver media.Archiver = media.NoopArchiver{}
	if cfg.MediaBucket != "" {
		gcsArchiver, err := media.NewGCSArchiver(ctx, cfg.MediaBucket, logger.Component(log, "media"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create media archiver")
		}
		defer gcsArchiver.Close()
		archiver = gcsArchiver
	} else {
		log.Warn().Msg("No media bucket configured, media archival disabled")
	}

	var links *dashboard.LinkBuilder
	if cfg.DashboardURL != "" {
		links = dashboard.NewLinkBuilder(cfg.DashboardURL, cfg.DashboardSecret)
	}

	router := bot.NewRouter(st, extractor, classifier, analyst, archiver, links,
		logger.Component(log, "bot"))

	webhook := handlers.NewWebhookHandler(router, logger.Component(log, "api"))

	// Only the webhook is secret-protected; /health stays open for probes.
	mux := http.NewServeMux()
	mux.Handle("/webhook", middleware.SharedSecret(cfg.WebhookSecret)(webhook))
	mux.HandleFunc("/health", handlers.HealthHandler)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(mux),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting bot server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
