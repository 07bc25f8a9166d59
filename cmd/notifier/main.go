package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/anneth/shop/internal/config"
	"github.com/anneth/shop/internal/logger"
	"github.com/anneth/shop/internal/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	mailer, err := notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		Timeout:  cfg.SMTPTimeout,
	})
	if err != nil {
		slog.Error("failed to configure mailer", "error", err)
		os.Exit(1)
	}

	consumer := notification.NewConsumer(mailer, cfg.OrderEventsTopic, cfg.NotifierGroupID, cfg.KafkaBrokers...)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("order notifier started", "topic", cfg.OrderEventsTopic, "group_id", cfg.NotifierGroupID)
	consumer.Run(ctx)
	slog.Info("order notifier stopped")
}
