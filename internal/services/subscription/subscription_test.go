package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/microlearn/internal/models"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) MarkSubscriptionExpired(ctx context.Context, sub *models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}
func (m *RepoMock) ListUserTopics(ctx context.Context, userID int64) ([]*models.UserTopic, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserTopic), args.Error(1)
}
func (m *RepoMock) HasUserTopic(ctx context.Context, userID, topicID int64) (bool, error) {
	args := m.Called(ctx, userID, topicID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) FindMissingTopics(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}
func (m *RepoMock) PurchaseTopicBundle(ctx context.Context, purchase models.TopicPurchase) (*models.PurchaseResult, error) {
	args := m.Called(ctx, purchase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCheck_NoSubscription(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetActiveSubscription", mock.Anything, int64(1)).
		Return(nil, repository.ErrNotFound).Once()

	svc := New(repo, newNoopLogger())
	_, err := svc.Check(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestCheck_Active(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:              5,
		UserID:          1,
		PlanName:        "monthly",
		Status:          models.SubscriptionStatusActive,
		NextRenewalDate: now.AddDate(0, 0, 10),
		IsActive:        true,
	}
	topics := []*models.UserTopic{{ID: 3, UserID: 1, TopicID: 7}}

	repo := new(RepoMock)
	repo.On("GetActiveSubscription", mock.Anything, int64(1)).Return(sub, nil).Once()
	repo.On("ListUserTopics", mock.Anything, int64(1)).Return(topics, nil).Once()

	svc := New(repo, newNoopLogger()).WithClock(func() time.Time { return now })
	status, err := svc.Check(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, sub, status.Subscription)
	assert.Equal(t, topics, status.Topics)
	repo.AssertNotCalled(t, "MarkSubscriptionExpired", mock.Anything, mock.Anything)
}

func TestCheck_LazyExpiry(t *testing.T) {
	// Дата продления прошла: подписка переводится в expired при чтении,
	// вызывающему возвращается отсутствие подписки.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:              5,
		UserID:          1,
		NextRenewalDate: now.AddDate(0, 0, -1),
		IsActive:        true,
	}

	repo := new(RepoMock)
	repo.On("GetActiveSubscription", mock.Anything, int64(1)).Return(sub, nil).Once()
	repo.On("MarkSubscriptionExpired", mock.Anything, sub).Return(nil).Once()

	svc := New(repo, newNoopLogger()).WithClock(func() time.Time { return now })
	_, err := svc.Check(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNoSubscription)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "ListUserTopics", mock.Anything, mock.Anything)
}

func TestCheck_ExpiryWriteFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Subscription{ID: 5, UserID: 1, NextRenewalDate: now.AddDate(0, 0, -1)}

	repo := new(RepoMock)
	repo.On("GetActiveSubscription", mock.Anything, int64(1)).Return(sub, nil).Once()
	repo.On("MarkSubscriptionExpired", mock.Anything, sub).
		Return(errors.New("db down")).Once()

	svc := New(repo, newNoopLogger()).WithClock(func() time.Time { return now })
	_, err := svc.Check(context.Background(), 1)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSubscription)
}

func TestPurchaseTopic_UnknownTopic(t *testing.T) {
	repo := new(RepoMock)
	repo.On("FindMissingTopics", mock.Anything, []int64{99}).Return([]int64{99}, nil).Once()

	svc := New(repo, newNoopLogger())
	_, err := svc.PurchaseTopic(context.Background(), 1,
		models.DummyTopicPurchase{TopicID: 99, Amount: 100}, "pay_1", "INR")

	assert.ErrorIs(t, err, ErrTopicNotFound)
	repo.AssertNotCalled(t, "PurchaseTopicBundle", mock.Anything, mock.Anything)
}

func TestPurchaseTopic_AlreadyOwned(t *testing.T) {
	repo := new(RepoMock)
	repo.On("FindMissingTopics", mock.Anything, []int64{7}).Return([]int64(nil), nil).Once()
	repo.On("HasUserTopic", mock.Anything, int64(1), int64(7)).Return(true, nil).Once()

	svc := New(repo, newNoopLogger())
	_, err := svc.PurchaseTopic(context.Background(), 1,
		models.DummyTopicPurchase{TopicID: 7, Amount: 100}, "pay_1", "INR")

	assert.ErrorIs(t, err, ErrTopicAlreadyOwned)
	repo.AssertNotCalled(t, "PurchaseTopicBundle", mock.Anything, mock.Anything)
}

func TestPurchaseTopic_RaceLosesToUniqueIndex(t *testing.T) {
	// Проверка «не куплено» прошла, но конкурирующая покупка успела раньше:
	// нарушение уникальности трактуется как повторная покупка.
	repo := new(RepoMock)
	repo.On("FindMissingTopics", mock.Anything, []int64{7}).Return([]int64(nil), nil).Once()
	repo.On("HasUserTopic", mock.Anything, int64(1), int64(7)).Return(false, nil).Once()
	repo.On("PurchaseTopicBundle", mock.Anything, mock.Anything).
		Return(nil, repository.ErrDuplicate).Once()

	svc := New(repo, newNoopLogger())
	_, err := svc.PurchaseTopic(context.Background(), 1,
		models.DummyTopicPurchase{TopicID: 7, Amount: 100}, "pay_1", "INR")

	assert.ErrorIs(t, err, ErrTopicAlreadyOwned)
}

func TestPurchaseTopic_Success(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := new(RepoMock)
	repo.On("FindMissingTopics", mock.Anything, []int64{7}).Return([]int64(nil), nil).Once()
	repo.On("HasUserTopic", mock.Anything, int64(1), int64(7)).Return(false, nil).Once()
	repo.On("PurchaseTopicBundle", mock.Anything, mock.MatchedBy(func(p models.TopicPurchase) bool {
		return p.UserID == 1 && p.TopicID == 7 && p.Amount == 100 &&
			p.Currency == "INR" && p.ProviderPaymentID == "pay_1" && p.Now.Equal(now)
	})).Return(&models.PurchaseResult{UserTopicID: 2, PaymentID: 3, DeliveryID: 4}, nil).Once()

	svc := New(repo, newNoopLogger()).WithClock(func() time.Time { return now })
	result, err := svc.PurchaseTopic(context.Background(), 1,
		models.DummyTopicPurchase{TopicID: 7, Amount: 100}, "pay_1", "INR")

	require.NoError(t, err)
	assert.Equal(t, int64(4), result.DeliveryID)
	repo.AssertExpectations(t)
}
