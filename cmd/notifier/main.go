package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/retisha256/ecommerce/internal/config"
	"github.com/retisha256/ecommerce/internal/events"
	"github.com/retisha256/ecommerce/internal/logger"
	"github.com/retisha256/ecommerce/internal/mailer"
	"github.com/retisha256/ecommerce/internal/telemetry"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).With("service", "notifier")
	slog.SetDefault(log)
	log.Info("notifier starting...")

	if len(cfg.KafkaBrokers) == 0 {
		log.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), "notifier", cfg.OTelExporter)
	if err != nil {
		log.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		log.Error("failed to create SMTP client", "error", err)
		os.Exit(1)
	}
	mail := mailer.New(sender, mailer.DefaultBreakerSettings(), log)

	shopMail := cfg.SMTP.ShopMail
	if shopMail == "" {
		shopMail = cfg.SMTP.Username
	}

	groupID := getEnv("NOTIFIER_GROUP_ID", "notifier")
	consumer := events.NewConsumer(cfg.KafkaTopic, groupID, log, cfg.KafkaBrokers...)
	events.NewNotifications(mail, shopMail).Register(consumer)

	var wg sync.WaitGroup
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(consumerCtx)
	}()
	log.Info("consuming events", "topic", cfg.KafkaTopic, "group", groupID)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down notifier...")
	consumerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("consumer stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("consumer didn't stop in time")
	}

	consumer.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("failed to flush traces", "error", err)
	}
	log.Info("notifier stopped")
}
