// Package main процесс рассылки напоминаний: читает очереди неоплаченных и
// истекающих периодов и отправляет письма участникам.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/coworking-membership/internal/app/sender"
	"github.com/magabrotheeeer/coworking-membership/internal/config"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting reminder sender",
		slog.String("env", cfg.Env),
		slog.String("smtp_host", cfg.SMTPHost),
		slog.Any("queues", []string{rabbitmq.QueueUnpaid, rabbitmq.QueueExpiring}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sender.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize reminder sender", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("reminder sender stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("reminder sender stopped")
}
