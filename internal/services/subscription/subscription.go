// Package subscription реализует чтение статуса подписки с ленивым
// истечением и покупку отдельных тем.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
)

// Ошибки операций над подписками и правами на темы.
var (
	// ErrNoSubscription — у пользователя нет действующей подписки.
	ErrNoSubscription = errors.New("no active subscription")
	// ErrTopicAlreadyOwned — право на тему уже есть.
	ErrTopicAlreadyOwned = errors.New("topic already owned")
	// ErrTopicNotFound — тема отсутствует в каталоге.
	ErrTopicNotFound = errors.New("topic not found")
)

// Status — ответ проверки подписки.
type Status struct {
	Subscription *models.Subscription `json:"subscription"`
	Topics       []*models.UserTopic  `json:"topics"`
}

// Repository описывает методы хранилища, нужные для работы с подписками.
type Repository interface {
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	MarkSubscriptionExpired(ctx context.Context, sub *models.Subscription) error
	ListUserTopics(ctx context.Context, userID int64) ([]*models.UserTopic, error)
	HasUserTopic(ctx context.Context, userID, topicID int64) (bool, error)
	FindMissingTopics(ctx context.Context, ids []int64) ([]int64, error)
	PurchaseTopicBundle(ctx context.Context, purchase models.TopicPurchase) (*models.PurchaseResult, error)
}

// Service реализует операции над подписками.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// WithClock подменяет источник времени. Используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Check возвращает действующую подписку пользователя и его права на темы.
// Статус подписки проверяется лениво: если дата продления прошла, подписка
// здесь же переводится в expired и возвращается ErrNoSubscription.
func (s *Service) Check(ctx context.Context, userID int64) (*Status, error) {
	const op = "subscription.Check"

	sub, err := s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSubscription
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.now().After(sub.NextRenewalDate) {
		if err := s.repo.MarkSubscriptionExpired(ctx, sub); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("subscription lazily expired",
			slog.Int64("user_id", userID),
			slog.Int64("subscription_id", sub.ID))
		return nil, ErrNoSubscription
	}

	topics, err := s.repo.ListUserTopics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Status{Subscription: sub, Topics: topics}, nil
}

// PurchaseTopic оформляет покупку отдельной темы: проверяет, что тема
// существует и ещё не куплена, после чего атомарно создаёт право на тему,
// платёж и доставку первого дня. Гонка двух покупок разрешается уникальным
// индексом хранилища.
func (s *Service) PurchaseTopic(ctx context.Context, userID int64, req models.DummyTopicPurchase, providerPaymentID, currency string) (*models.PurchaseResult, error) {
	const op = "subscription.PurchaseTopic"

	missing, err := s.repo.FindMissingTopics(ctx, []int64{req.TopicID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(missing) > 0 {
		return nil, ErrTopicNotFound
	}

	owned, err := s.repo.HasUserTopic(ctx, userID, req.TopicID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if owned {
		return nil, ErrTopicAlreadyOwned
	}

	result, err := s.repo.PurchaseTopicBundle(ctx, models.TopicPurchase{
		UserID:            userID,
		TopicID:           req.TopicID,
		Amount:            req.Amount,
		Currency:          currency,
		ProviderPaymentID: providerPaymentID,
		Now:               s.now(),
	})
	if err != nil {
		if repository.IsDuplicateErr(err) {
			return nil, ErrTopicAlreadyOwned
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("topic purchased",
		slog.Int64("user_id", userID),
		slog.Int64("topic_id", req.TopicID),
		slog.Int64("payment_id", result.PaymentID))
	return result, nil
}
