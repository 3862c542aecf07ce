// Package sender собирает процесс, который читает очереди уведомлений и отправляет письма.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/coworking-membership/internal/config"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/coworking-membership/internal/services/sender"
)

// App приложение отправителя писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к RabbitMQ и готовит SMTP-транспорт.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(transport, cfg.NotifyFromEmail, logger),
		logger:        logger,
	}, nil
}

// Run запускает потребителей обеих очередей и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	consumers := map[string]func([]byte) error{
		rabbitmq.QueueUnpaid:   a.senderService.SendUnpaidReminder,
		rabbitmq.QueueExpiring: a.senderService.SendExpiringReminder,
	}
	for queue, handler := range consumers {
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, queue, handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
			a.close()
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
