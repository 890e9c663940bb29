// Package sender собирает воркер-отправитель: подписку на очереди доставки
// и почтовый транспорт.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/microlearn/internal/config"
	"github.com/magabrotheeeer/microlearn/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/microlearn/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/microlearn/internal/services/sender"
)

// App представляет приложение воркера-отправителя.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New создает новый экземпляр воркера-отправителя.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetDeliveryQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.New(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run подписывается на очереди и обрабатывает сообщения до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumeMessages(ctx, a.ch, "delivery.content", a.senderService.SendContent); err != nil {
		a.logger.Error("failed to start delivery.content consumer", slog.Any("err", err))
		return err
	}

	if err := rabbitmq.ConsumeMessages(ctx, a.ch, "delivery.otp", a.senderService.SendOtp); err != nil {
		a.logger.Error("failed to start delivery.otp consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
