// Package scheduler собирает сервис планировщика доставки контента.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/microlearn/internal/config"
	"github.com/magabrotheeeer/microlearn/internal/lib/rabbitmq"
	deliveryservice "github.com/magabrotheeeer/microlearn/internal/services/delivery"
	"github.com/magabrotheeeer/microlearn/internal/services/dispatch"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
)

// App представляет приложение планировщика доставки.
type App struct {
	deliveryService *deliveryservice.Service
	cycleInterval   time.Duration
	conn            *amqp.Connection
	ch              *amqp.Channel
	logger          *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for i := 0; i < 10; i++ {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetDeliveryQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	publisher := dispatch.New(ch)
	deliveryService := deliveryservice.New(db, publisher, logger, cfg.DispatchTimeout, cfg.RecentLimit)

	return &App{
		deliveryService: deliveryService,
		cycleInterval:   cfg.CycleInterval,
		conn:            conn,
		ch:              ch,
		logger:          logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает циклы доставки до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go a.deliveryService.Run(ctx, a.cycleInterval)

	<-ctx.Done()

	a.logger.Info("shutting down delivery scheduler")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
