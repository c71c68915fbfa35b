package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"contact_service/internal/config"
	"contact_service/internal/handlers"
	"contact_service/internal/kafka"
	"contact_service/internal/metrics"
	"contact_service/internal/ratelimit"
	"contact_service/internal/telegram"

	"github.com/go-chi/chi/v5"
)

func main() {
	logger := log.Default()

	// ---------- config ----------
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------- rate limiter ----------
	store := ratelimit.NewRedisStore(ratelimit.RedisConfig{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
		OpTimeout:   cfg.Redis.OpTimeout,
	})
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		// не фатально: лимитер fail-open, форма важнее квоты
		logger.Printf("redis not reachable at startup: %v", err)
	}

	limiter := ratelimit.NewLimiter(store, cfg.RateLimit.Requests, cfg.RateLimit.Window(), logger)

	ratelimit.StartRedisSizeCollector(ctx, store.RawClient(), 30*time.Second, logger)

	// ---------- kafka producer ----------
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if err := producer.Start(); err != nil {
		log.Fatal("kafka producer:", err)
	}
	defer producer.Stop()

	// ---------- telegram webhook ----------
	bot := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.OwnerID, logger)
	if cfg.Telegram.BotToken != "" && cfg.Telegram.WebhookURL != "" {
		if err := bot.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			logger.Printf("set telegram webhook: %v", err)
		}
	}

	// ---------- handlers ----------
	contactHandler := handlers.NewContactHandler(limiter, producer, cfg.App.APIKey, logger)
	telegramHandler := handlers.NewTelegramHandler(bot, cfg.Telegram.WebhookSecret, logger)
	healthHandler := handlers.NewHealthHandler(store, producer, cfg.Kafka.Brokers, cfg.App.Environment)

	// ---------- router ----------
	r := chi.NewRouter()
	r.Use(metrics.HTTPMiddleware)

	handlers.RegisterHealthRoutes(r, healthHandler)
	handlers.RegisterContactRoutes(r, contactHandler)
	handlers.RegisterTelegramRoutes(r, telegramHandler)
	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: r,
	}

	go func() {
		logger.Println("server starting on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("server shutdown: %v", err)
	}

	if err := bot.DeleteWebhook(shutdownCtx); err != nil {
		logger.Printf("delete telegram webhook: %v", err)
	}

	logger.Println("server stopped")
}
