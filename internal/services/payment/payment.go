// Package payment реализует проверку платежа: сверку подписи платёжного
// провайдера и атомарную запись платежа с активацией подписки.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
)

// Ошибки проверки платежа. Обработчики переводят их в HTTP-статусы.
var (
	// ErrInvalidSignature — подпись не совпала, хранилище не менялось.
	ErrInvalidSignature = errors.New("payment signature mismatch")
	// ErrUnknownPlan — план с таким именем отсутствует в каталоге.
	ErrUnknownPlan = errors.New("unknown plan")
)

// Repository описывает методы хранилища, нужные для проверки платежа.
type Repository interface {
	GetPlanByName(ctx context.Context, name string) (*models.Plan, error)
	RecordPaymentAndActivate(ctx context.Context, act models.PaymentActivation) (*models.PaymentResult, error)
	ListPayments(ctx context.Context, userID int64, limit, offset int) ([]*models.Payment, error)
}

// Service реализует проверку платежей.
type Service struct {
	repo      Repository
	secretKey string
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, secretKey string, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		secretKey: secretKey,
		log:       log,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Verify сверяет подпись провайдера и при совпадении атомарно записывает
// платёж и активирует подписку: продлевает существующую, если передан её
// идентификатор, иначе создаёт новую. Несовпадение подписи ничего не пишет.
func (s *Service) Verify(ctx context.Context, userID int64, req models.DummyPaymentVerify) (*models.PaymentResult, error) {
	const op = "payment.Verify"

	expected := Signature(s.secretKey, req.OrderID, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		s.log.Warn("payment signature mismatch",
			slog.Int64("user_id", userID),
			slog.String("order_id", req.OrderID))
		return nil, ErrInvalidSignature
	}

	plan, err := s.repo.GetPlanByName(ctx, req.PlanName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownPlan
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	result, err := s.repo.RecordPaymentAndActivate(ctx, models.PaymentActivation{
		UserID:            userID,
		TopicID:           req.TopicID,
		SubscriptionID:    req.SubscriptionID,
		ProviderPaymentID: req.PaymentID,
		PlanName:          plan.Name,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Now:               now,
		RenewalDate:       now.AddDate(0, 0, plan.DurationDays),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment verified",
		slog.Int64("user_id", userID),
		slog.String("order_id", req.OrderID),
		slog.Int64("subscription_id", result.SubscriptionID))
	return result, nil
}

// History возвращает платежи пользователя, от новых к старым.
func (s *Service) History(ctx context.Context, userID int64, limit, offset int) ([]*models.Payment, error) {
	const op = "payment.History"

	payments, err := s.repo.ListPayments(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// Signature вычисляет подпись провайдера: HMAC-SHA256 от "orderID|paymentID"
// в шестнадцатеричной записи.
func Signature(secretKey, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
