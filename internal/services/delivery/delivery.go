// Package delivery реализует планировщик доставки контента: обход всех
// неотправленных записей, отправку через внешний канал и продвижение курсора
// на следующий день программы.
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/metrics"
	"github.com/magabrotheeeer/microlearn/internal/models"
)

// Repository описывает методы хранилища, нужные планировщику.
type Repository interface {
	ListPendingDeliveries(ctx context.Context) ([]*models.PendingDelivery, error)
	MarkDeliveredAndSeedNext(ctx context.Context, d *models.PendingDelivery, now time.Time) (bool, error)
	IncrementDeliveryAttempts(ctx context.Context, deliveryID int64) error
	AppendDeliveryLog(ctx context.Context, d *models.PendingDelivery) error
	CountPendingDeliveries(ctx context.Context, userID *int64) (int, error)
	CountSentSince(ctx context.Context, since time.Time, userID *int64) (int, error)
	ListRecentDeliveries(ctx context.Context, limit int, userID *int64) ([]models.ContentDelivery, error)
}

// Dispatcher отправляет контент пользователю через внешний канал.
// Реализация обязана уважать дедлайн контекста.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg models.DeliveryMessage) error
}

// Service реализует цикл доставки и чтение сводки.
type Service struct {
	repo            Repository
	dispatcher      Dispatcher
	log             *slog.Logger
	dispatchTimeout time.Duration
	recentLimit     int
	now             func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, dispatcher Dispatcher, log *slog.Logger, dispatchTimeout time.Duration, recentLimit int) *Service {
	return &Service{
		repo:            repo,
		dispatcher:      dispatcher,
		log:             log,
		dispatchTimeout: dispatchTimeout,
		recentLimit:     recentLimit,
		now:             time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RunDeliveryCycle выполняет один цикл доставки: выбирает все неотправленные
// записи (старые первыми) и обрабатывает каждую независимо — неудача одной
// отправки не мешает остальным. Для успешной отправки запись помечается
// отправленной и сеется запись следующего дня, если контент для него есть;
// посеянная запись попадает только в следующий цикл. Неудачная отправка
// оставляет запись в очереди до следующего цикла.
func (s *Service) RunDeliveryCycle(ctx context.Context) (*models.CycleResult, error) {
	const op = "delivery.RunDeliveryCycle"
	log := s.log.With(slog.String("op", op))

	pending, err := s.repo.ListPendingDeliveries(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.CycleResult{Total: len(pending)}
	if len(pending) == 0 {
		log.Info("no pending deliveries")
		metrics.DeliveryCyclesTotal.Inc()
		return result, nil
	}

	for _, d := range pending {
		if err := s.dispatch(ctx, d); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, models.DeliveryFailure{
				DeliveryID: d.DeliveryID,
				UserID:     d.UserID,
				TopicID:    d.TopicID,
				DayNumber:  d.DayNumber,
				Reason:     err.Error(),
			})
			metrics.DeliveriesFailedTotal.Inc()
			log.Error("dispatch failed",
				slog.Int64("delivery_id", d.DeliveryID),
				slog.Int64("user_id", d.UserID),
				sl.Err(err))
			if attemptErr := s.repo.IncrementDeliveryAttempts(ctx, d.DeliveryID); attemptErr != nil {
				log.Error("failed to count attempt", sl.Err(attemptErr))
			}
			continue
		}

		seeded, err := s.repo.MarkDeliveredAndSeedNext(ctx, d, s.now())
		if err != nil {
			// Отправка прошла, а фиксация не удалась: запись остаётся
			// неотправленной, следующий цикл отправит её повторно.
			result.Failed++
			result.Failures = append(result.Failures, models.DeliveryFailure{
				DeliveryID: d.DeliveryID,
				UserID:     d.UserID,
				TopicID:    d.TopicID,
				DayNumber:  d.DayNumber,
				Reason:     err.Error(),
			})
			metrics.DeliveriesFailedTotal.Inc()
			log.Error("failed to mark delivery sent", sl.Err(err))
			continue
		}

		result.Sent++
		metrics.DeliveriesSentTotal.Inc()
		if !seeded {
			log.Info("topic fully delivered",
				slog.Int64("user_id", d.UserID),
				slog.Int64("topic_id", d.TopicID),
				slog.Int("day", d.DayNumber))
		}

		if logErr := s.repo.AppendDeliveryLog(ctx, d); logErr != nil {
			// Аудит не критичен для доставки.
			log.Warn("failed to append delivery log", sl.Err(logErr))
		}
	}

	metrics.DeliveryCyclesTotal.Inc()
	log.Info("delivery cycle finished",
		slog.Int("total", result.Total),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed))
	return result, nil
}

// dispatch отправляет одну запись с дедлайном на внешний вызов.
func (s *Service) dispatch(ctx context.Context, d *models.PendingDelivery) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()

	return s.dispatcher.Dispatch(dispatchCtx, models.DeliveryMessage{
		Email:     d.Email,
		UserName:  d.UserName,
		TopicID:   d.TopicID,
		DayNumber: d.DayNumber,
		Title:     d.Title,
		Body:      d.Body,
	})
}

// Run запускает периодическое выполнение циклов доставки до отмены контекста.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if _, err := s.RunDeliveryCycle(ctx); err != nil {
		s.log.Error("delivery cycle failed", sl.Err(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunDeliveryCycle(ctx); err != nil {
				s.log.Error("delivery cycle failed", sl.Err(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stats возвращает сводку по доставкам без побочных эффектов, опционально
// по одному пользователю.
func (s *Service) Stats(ctx context.Context, userID *int64) (*models.SchedulerStats, error) {
	pending, err := s.repo.CountPendingDeliveries(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sentToday, err := s.repo.CountSentSince(ctx, startOfDay, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.ListRecentDeliveries(ctx, s.recentLimit, userID)
	if err != nil {
		return nil, err
	}

	return &models.SchedulerStats{
		Pending:   pending,
		SentToday: sentToday,
		Recent:    recent,
	}, nil
}
