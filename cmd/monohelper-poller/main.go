package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"monohelper/internal/amqp"
	"monohelper/internal/config"
	"monohelper/internal/log"
	"monohelper/internal/monobank"
	"monohelper/internal/services"
	"monohelper/internal/storage"
	"monohelper/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfgLog := log.DefaultConfig()
	cfgLog.Component = log.ComponentPoller
	logger := log.New(cfgLog)
	log.SetDefault(logger)

	logger.Info("Starting monohelper-poller")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	bank := monobank.NewClient(cfg.MonoAPIBaseURL, nil)

	var notifier services.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqpClient
	}

	ingest := services.NewIngestService(repo, bank, notifier)
	reports := services.NewReportService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	webhookURL := cfg.WebhookEndpoint()

	scheduler := worker.NewScheduler(reports, ingest, notifier, webhookURL)
	if notifier != nil {
		if err := scheduler.Start(ctx, cfg.DailyReportSpec); err != nil {
			logger.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	} else {
		logger.Info("Scheduler disabled - no AMQP broker configured")
	}

	if webhookURL != "" {
		if err := ingest.RegisterWebhooks(ctx, webhookURL); err != nil {
			logger.Error("Initial webhook registration failed", "error", err)
		}
	}

	poller := worker.NewPoller(repo, ingest, cfg.PollInterval, cfg.PollConcurrency)
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Poller error", "error", err)
		os.Exit(1)
	}

	logger.Info("Poller stopped gracefully")
}
