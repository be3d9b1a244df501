// Package main provides the admission advisor bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/abitbot/itmo-tgbot-go/internal/bot"
	"github.com/abitbot/itmo-tgbot-go/internal/buildinfo"
	"github.com/abitbot/itmo-tgbot-go/internal/config"
	"github.com/abitbot/itmo-tgbot-go/internal/data"
	"github.com/abitbot/itmo-tgbot-go/internal/extract"
	"github.com/abitbot/itmo-tgbot-go/internal/lemma"
	"github.com/abitbot/itmo-tgbot-go/internal/logger"
	"github.com/abitbot/itmo-tgbot-go/internal/metrics"
	"github.com/abitbot/itmo-tgbot-go/internal/ratelimit"
	"github.com/abitbot/itmo-tgbot-go/internal/recommend"
	"github.com/abitbot/itmo-tgbot-go/internal/scraper"
	"github.com/abitbot/itmo-tgbot-go/internal/sentry"
	"github.com/abitbot/itmo-tgbot-go/internal/storage"
	"github.com/abitbot/itmo-tgbot-go/internal/warmup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("version", buildinfo.Version).Info("Starting admission advisor bot")

	// Initialize error tracking (optional)
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.Environment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize error tracking")
	}
	defer sentry.Flush(2 * time.Second)

	// Connect to the session database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Knowledge area keyword configuration
	areas, err := recommend.LoadAreas(cfg.KnowledgeAreasPath)
	if err != nil {
		log.WithError(err).WithField("path", cfg.KnowledgeAreasPath).Fatal("Failed to load knowledge areas")
	}

	// Scraper client
	scraperClient := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMaxRetries)
	log.Info("Scraper client created")

	// Fetch and parse every academic plan before serving traffic. The bot
	// has nothing to recommend from until curricula are in memory.
	curricula, err := warmup.Load(
		context.Background(),
		scraperClient,
		extract.Lines,
		data.Programs,
		log,
		warmup.Options{Metrics: m},
	)
	if err != nil {
		sentry.CaptureError(err)
		log.WithError(err).Fatal("Failed to load academic plans")
	}

	engine := recommend.NewEngine(curricula, areas, lemma.NewSnowball(), log)
	log.WithField("programs", engine.Programs()).Info("Recommendation engine ready")

	// Telegram API client
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Telegram client")
	}
	log.WithField("username", api.Self.UserName).Info("Telegram client authorized")

	handler := bot.NewHandler(api, db, engine, m, log)

	// Per-chat throttling: a small burst, then one message per two seconds.
	limiter := ratelimit.NewPerChat(ratelimit.Config{
		MaxTokens:     cfg.ChatRateBurst,
		RefillRate:    cfg.ChatRateRefill,
		CleanupPeriod: 5 * time.Minute,
	})
	defer limiter.Stop()
	handler.SetLimiter(limiter)

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, handler, engine, db, registry)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in session cleanup goroutine")
			}
		}()
		cleanupExpiredSessions(ctx, db, cfg.SessionTTL, m, log)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in session metrics goroutine")
			}
		}()
		updateSessionMetrics(ctx, db, m, log)
	}()

	// Telegram updates: webhook when a public URL is configured, long
	// polling otherwise.
	if cfg.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.WebhookURL + "/webhook")
		if err != nil {
			log.WithError(err).Fatal("Invalid webhook URL")
		}
		if _, err := api.Request(wh); err != nil {
			log.WithError(err).Fatal("Failed to register webhook")
		}
		log.WithField("url", cfg.WebhookURL).Info("Webhook registered")
	} else {
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.WithError(err).Warn("Failed to delete stale webhook")
		}

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := api.GetUpdatesChan(u)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithField("panic", r).Error("Panic in polling goroutine")
				}
			}()
			for update := range updates {
				handler.HandleUpdate(ctx, update)
			}
		}()
		log.Info("Long polling started")
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop consuming Telegram updates, then stop background goroutines
	api.StopReceivingUpdates()
	cancel()

	goDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goDone)
	}()

	select {
	case <-goDone:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	// Shutdown server gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}
