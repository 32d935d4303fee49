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
	"monohelper/internal/telegram"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfgLog := log.DefaultConfig()
	cfgLog.Component = log.ComponentTelegram
	logger := log.New(cfgLog)
	log.SetDefault(logger)

	logger.Info("Starting monohelper-notifier")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" || cfg.TelegramBotToken == "" {
		logger.Error("Notifier requires AMQP_URL and TELEGRAM_BOT_TOKEN")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	bot := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramBotToken)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	err = amqpClient.ConsumeNotifications(ctx, func(msg *amqp.Notification) error {
		// Operator messages (tg_id 0) have nowhere to go without a chat id.
		if msg.TgID == 0 {
			logger.Warn("Dropping notification without tg_id", "kind", msg.Kind, "text", msg.Text)
			return nil
		}
		return bot.SendMessage(ctx, msg.TgID, msg.Text)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer error", "error", err)
		os.Exit(1)
	}

	logger.Info("Notifier stopped gracefully")
}
