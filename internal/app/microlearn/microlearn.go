// Package microlearn собирает API-сервис платформы: хранилище, кеш,
// очередь, бизнес-сервисы и HTTP-сервер.
package microlearn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/microlearn/internal/cache"
	"github.com/magabrotheeeer/microlearn/internal/config"
	jwtlib "github.com/magabrotheeeer/microlearn/internal/lib/jwt"
	"github.com/magabrotheeeer/microlearn/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/microlearn/internal/migrations"
	"github.com/magabrotheeeer/microlearn/internal/paymentprovider"
	deliveryservice "github.com/magabrotheeeer/microlearn/internal/services/delivery"
	"github.com/magabrotheeeer/microlearn/internal/services/dispatch"
	otpservice "github.com/magabrotheeeer/microlearn/internal/services/otp"
	paymentservice "github.com/magabrotheeeer/microlearn/internal/services/payment"
	plansservice "github.com/magabrotheeeer/microlearn/internal/services/plans"
	subscriptionservice "github.com/magabrotheeeer/microlearn/internal/services/subscription"
	trialservice "github.com/magabrotheeeer/microlearn/internal/services/trial"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
)

// App представляет API-сервис платформы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает новый экземпляр App: подключает зависимости, применяет
// миграции и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetDeliveryQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	publisher := dispatch.New(ch)
	jwtMaker := jwtlib.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.New(cfg.PaymentGateway, logger)

	otpSvc := otpservice.New(db, publisher, jwtMaker, logger)
	trialSvc := trialservice.New(db, cfg.TrialPlanName, logger)
	paymentSvc := paymentservice.New(db, cfg.GatewaySecretKey, logger)
	subscriptionSvc := subscriptionservice.New(db, logger)
	plansSvc := plansservice.New(db, cacheRedis, logger)
	deliverySvc := deliveryservice.New(db, publisher, logger, cfg.DispatchTimeout, cfg.RecentLimit)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, db,
		otpSvc, trialSvc, paymentSvc, subscriptionSvc, plansSvc, deliverySvc, providerClient)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if chErr := a.ch.Close(); chErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", chErr))
		}
		if connErr := a.conn.Close(); connErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", connErr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
