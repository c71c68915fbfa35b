package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"contact_service/internal/config"
	"contact_service/internal/kafka"
	"contact_service/internal/metrics"
	"contact_service/internal/repository"
	"contact_service/internal/service"
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

	// ---------- db ----------
	pool, err := repository.NewPool(cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("db:", err)
	}
	defer pool.Close()

	contactRepo := repository.NewContactRepository(pool)

	metrics.StartDBCollector(ctx, pool, 30*time.Second, logger)

	// ---------- notifier ----------
	bot := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.OwnerID, logger)

	// ---------- dlq producer ----------
	dlqProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DLQTopic, logger)
	if err := dlqProducer.Start(); err != nil {
		log.Fatal("dlq producer:", err)
	}
	defer dlqProducer.Stop()

	// ---------- pipeline ----------
	processor := service.NewContactProcessor(contactRepo, bot, dlqProducer, logger, 0, 0)

	// ---------- kafka consumer ----------
	consumer, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		cfg.Kafka.Topic,
		processor,
		logger,
	)
	if err != nil {
		log.Fatal("kafka consumer:", err)
	}
	defer consumer.Close()

	// ---------- metrics / liveness ----------
	r := chi.NewRouter()
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"alive"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.WorkerPort,
		Handler: r,
	}

	go func() {
		logger.Println("worker metrics on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("worker http: %v", err)
		}
	}()

	logger.Println("starting kafka worker...")

	if err := consumer.Start(ctx); err != nil {
		logger.Printf("consumer: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	logger.Println("worker stopped")
}
