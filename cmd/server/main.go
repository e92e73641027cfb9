// Package main provides the LINE bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ymgch/hime-linebot-go/internal/bot"
	"github.com/ymgch/hime-linebot-go/internal/config"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/mediastore"
	"github.com/ymgch/hime-linebot-go/internal/metrics"
	"github.com/ymgch/hime-linebot-go/internal/randutil"
	"github.com/ymgch/hime-linebot-go/internal/rules"
	"github.com/ymgch/hime-linebot-go/internal/scraper"
	"github.com/ymgch/hime-linebot-go/internal/sentry"
	"github.com/ymgch/hime-linebot-go/internal/storage"
	"github.com/ymgch/hime-linebot-go/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithBetterstack(cfg.LogLevel, cfg.BetterstackToken)
	log.Infof("Starting Hime LineBot Server")

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: "production",
	}); err != nil {
		log.WithError(err).Errorf("Failed to initialize error tracking")
		os.Exit(1)
	}
	defer sentry.Flush(2 * time.Second)

	ctx := context.Background()

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Errorf("Failed to connect to database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Infof("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)
	log.Infof("Metrics initialized")

	media, err := mediastore.New(ctx, mediastore.Config{
		Endpoint:    cfg.MediaEndpoint,
		AccessKeyID: cfg.MediaAccessKeyID,
		SecretKey:   cfg.MediaSecretKey,
		BucketName:  cfg.MediaBucket,
		PublicURL:   cfg.MediaPublicURL,
	}, nil)
	if err != nil {
		log.WithError(err).Errorf("Failed to create media store")
		os.Exit(1)
	}
	log.WithField("bucket", cfg.MediaBucket).Infof("Media store created")

	scraperClient := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMaxRetries)
	log.Infof("Scraper client created")

	profiles, err := webhook.NewProfileResolver(cfg.LineChannelToken)
	if err != nil {
		log.WithError(err).Errorf("Failed to create profile resolver")
		os.Exit(1)
	}
	blob, err := webhook.NewBlobDownloader(cfg.LineChannelToken)
	if err != nil {
		log.WithError(err).Errorf("Failed to create blob downloader")
		os.Exit(1)
	}

	maint := rules.NewMaintenance(db, media, scraperClient, log, m, cfg.Bot.ThumbnailMaxEdge)
	pipeline := bot.NewPipeline(log,
		rules.NewEntityRule(db, media, log, cfg.Bot.MaxListingsCarousel),
		rules.NewIntentRule(db, maint, log),
		rules.NewPatternRule(db, media, log, randutil.Default(), cfg.Bot.WarningChance),
		rules.NewIngestRule(db, scraperClient, log, m),
	)

	processor := bot.NewProcessor(bot.ProcessorConfig{
		DB:        db,
		Pipeline:  pipeline,
		Profiles:  profiles,
		Archiver:  rules.NewImageArchiver(media, blob, log, m, cfg.Bot.ThumbnailMaxEdge),
		Logger:    log,
		Metrics:   m,
		BotConfig: &cfg.Bot,
	})

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		BotConfig:     &cfg.Bot,
		Metrics:       m,
		Logger:        log,
		Processor:     processor,
	})
	if err != nil {
		log.WithError(err).Errorf("Failed to create webhook handler")
		os.Exit(1)
	}
	log.Infof("Webhook handler created")

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	setupRoutes(router, webhookHandler, db, registry, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Bot.WebhookTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Infof("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Errorf("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Errorf("Failed to close database")
	}

	log.Infof("Server stopped")
}
