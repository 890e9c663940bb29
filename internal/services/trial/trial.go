// Package trial реализует активацию бесплатного пробного периода:
// проверки предусловий, разбор списка тем и атомарное создание платежа,
// подписки и расписания доставки контента.
package trial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
)

// Длительность пробного периода.
const trialDuration = 7 * 24 * time.Hour

// Ошибки активации. Обработчики переводят их в HTTP-статусы.
var (
	// ErrNotTrialPlan — переданный план не является пробным.
	ErrNotTrialPlan = errors.New("plan is not the trial plan")
	// ErrActiveSubscription — у пользователя уже есть действующая подписка.
	ErrActiveSubscription = errors.New("user already has an active subscription")
	// ErrTrialAlreadyUsed — пробный период уже был активирован ранее.
	ErrTrialAlreadyUsed = errors.New("trial already used")
	// ErrNoValidTopics — после разбора списка тем не осталось ни одной корректной.
	ErrNoValidTopics = errors.New("no valid topics in preferences")
)

// UnknownTopicsError перечисляет темы, отсутствующие в каталоге.
type UnknownTopicsError struct {
	TopicIDs []int64
}

func (e *UnknownTopicsError) Error() string {
	parts := make([]string, len(e.TopicIDs))
	for i, id := range e.TopicIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "unknown topics: " + strings.Join(parts, ", ")
}

// Repository описывает методы хранилища, нужные для активации пробного периода.
type Repository interface {
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	HasEverHadPlan(ctx context.Context, userID int64, planName string) (bool, error)
	FindMissingTopics(ctx context.Context, ids []int64) ([]int64, error)
	ActivateTrialBundle(ctx context.Context, act models.TrialActivation) (*models.TrialResult, error)
}

// Service реализует активацию пробного периода.
type Service struct {
	repo          Repository
	trialPlanName string
	log           *slog.Logger
	now           func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, trialPlanName string, log *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		trialPlanName: trialPlanName,
		log:           log,
		now:           time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Activate активирует пробный период для пользователя. Предусловия:
// план совпадает с пробным, нет действующей подписки, пробный период
// ранее не активировался. При нарушении любого из них ничего не пишется.
func (s *Service) Activate(ctx context.Context, userID int64, req models.DummyTrialActivation) (*models.TrialResult, error) {
	const op = "trial.Activate"

	if req.PlanName != s.trialPlanName {
		return nil, ErrNotTrialPlan
	}

	if _, err := s.repo.GetActiveSubscription(ctx, userID); err == nil {
		return nil, ErrActiveSubscription
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hadTrial, err := s.repo.HasEverHadPlan(ctx, userID, s.trialPlanName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if hadTrial {
		return nil, ErrTrialAlreadyUsed
	}

	var prefs *models.UserPreferences
	var topicIDs []int64
	var skipped []string
	now := s.now()

	if req.Preferences != nil {
		topicIDs, skipped = ParseTopicIDs(req.Preferences.Topics)
		if len(topicIDs) == 0 {
			return nil, ErrNoValidTopics
		}

		missing, err := s.repo.FindMissingTopics(ctx, topicIDs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(missing) > 0 {
			return nil, &UnknownTopicsError{TopicIDs: missing}
		}

		channel := req.Preferences.DeliveryChannel
		if channel == "" {
			channel = "email"
		}
		deliveryTime := req.Preferences.DeliveryTime
		if deliveryTime == "" {
			deliveryTime = "09:00"
		}
		prefs = &models.UserPreferences{
			UserID:          userID,
			TopicIDs:        topicIDs,
			DeliveryChannel: channel,
			DeliveryTime:    deliveryTime,
			UpdatedAt:       now,
		}
	}

	result, err := s.repo.ActivateTrialBundle(ctx, models.TrialActivation{
		UserID:            userID,
		PlanName:          s.trialPlanName,
		ProviderPaymentID: fmt.Sprintf("trial_%d_%d", now.Unix(), userID),
		Currency:          "INR",
		Now:               now,
		TrialEnd:          now.Add(trialDuration),
		Preferences:       prefs,
		TopicIDs:          topicIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.SkippedTopics = skipped

	s.log.Info("trial activated",
		slog.Int64("user_id", userID),
		slog.Int64("subscription_id", result.SubscriptionID),
		slog.Int("topics", len(topicIDs)))
	return result, nil
}

// ParseTopicIDs разбирает список тем из запроса. Некорректные элементы
// не прерывают активацию, а возвращаются отдельным списком, чтобы
// вызывающая сторона видела, что было отброшено. Дубликаты схлопываются.
func ParseTopicIDs(raw []string) (ids []int64, skipped []string) {
	seen := make(map[int64]struct{}, len(raw))
	for _, item := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(item), 10, 64)
		if err != nil || id <= 0 {
			skipped = append(skipped, item)
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, skipped
}
