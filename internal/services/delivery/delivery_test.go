package delivery

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
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListPendingDeliveries(ctx context.Context) ([]*models.PendingDelivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PendingDelivery), args.Error(1)
}
func (m *RepoMock) MarkDeliveredAndSeedNext(ctx context.Context, d *models.PendingDelivery, now time.Time) (bool, error) {
	args := m.Called(ctx, d, now)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) IncrementDeliveryAttempts(ctx context.Context, deliveryID int64) error {
	return m.Called(ctx, deliveryID).Error(0)
}
func (m *RepoMock) AppendDeliveryLog(ctx context.Context, d *models.PendingDelivery) error {
	return m.Called(ctx, d).Error(0)
}
func (m *RepoMock) CountPendingDeliveries(ctx context.Context, userID *int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) CountSentSince(ctx context.Context, since time.Time, userID *int64) (int, error) {
	args := m.Called(ctx, since, userID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListRecentDeliveries(ctx context.Context, limit int, userID *int64) ([]models.ContentDelivery, error) {
	args := m.Called(ctx, limit, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContentDelivery), args.Error(1)
}

type DispatcherMock struct{ mock.Mock }

func (m *DispatcherMock) Dispatch(ctx context.Context, msg models.DeliveryMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func pendingRow(deliveryID, userID, topicID int64, day int) *models.PendingDelivery {
	return &models.PendingDelivery{
		DeliveryID: deliveryID,
		UserID:     userID,
		UserName:   "Ivan",
		Email:      "ivan@example.com",
		TopicID:    topicID,
		DayNumber:  day,
		Title:      "Day title",
		Body:       "Day body",
	}
}

func TestRunDeliveryCycle_EmptyQueue(t *testing.T) {
	repo := new(RepoMock)
	dispatcher := new(DispatcherMock)
	repo.On("ListPendingDeliveries", mock.Anything).Return([]*models.PendingDelivery(nil), nil).Once()

	svc := New(repo, dispatcher, newNoopLogger(), time.Second, 10)
	result, err := svc.RunDeliveryCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 0, result.Failed)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestRunDeliveryCycle_SendsAndAdvances(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	row := pendingRow(100, 1, 5, 3)

	repo := new(RepoMock)
	dispatcher := new(DispatcherMock)
	repo.On("ListPendingDeliveries", mock.Anything).Return([]*models.PendingDelivery{row}, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(msg models.DeliveryMessage) bool {
		return msg.Email == "ivan@example.com" && msg.DayNumber == 3 && msg.Title == "Day title"
	})).Return(nil).Once()
	repo.On("MarkDeliveredAndSeedNext", mock.Anything, row, now).Return(true, nil).Once()
	repo.On("AppendDeliveryLog", mock.Anything, row).Return(nil).Once()

	svc := New(repo, dispatcher, newNoopLogger(), time.Second, 10).
		WithClock(func() time.Time { return now })
	result, err := svc.RunDeliveryCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Failed)
	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestRunDeliveryCycle_DispatchFailureKeepsRow(t *testing.T) {
	// Неудачная отправка не двигает курсор: запись остаётся в очереди,
	// увеличивается только счётчик попыток.
	row := pendingRow(100, 1, 5, 3)

	repo := new(RepoMock)
	dispatcher := new(DispatcherMock)
	repo.On("ListPendingDeliveries", mock.Anything).Return([]*models.PendingDelivery{row}, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	repo.On("IncrementDeliveryAttempts", mock.Anything, int64(100)).Return(nil).Once()

	svc := New(repo, dispatcher, newNoopLogger(), time.Second, 10)
	result, err := svc.RunDeliveryCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, int64(100), result.Failures[0].DeliveryID)
	assert.Equal(t, "broker down", result.Failures[0].Reason)
	repo.AssertNotCalled(t, "MarkDeliveredAndSeedNext", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestRunDeliveryCycle_FailureDoesNotBlockOthers(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	failing := pendingRow(100, 1, 5, 3)
	healthy := pendingRow(101, 2, 5, 1)

	repo := new(RepoMock)
	dispatcher := new(DispatcherMock)
	repo.On("ListPendingDeliveries", mock.Anything).
		Return([]*models.PendingDelivery{failing, healthy}, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(msg models.DeliveryMessage) bool {
		return msg.DayNumber == 3
	})).Return(errors.New("mailbox full")).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(msg models.DeliveryMessage) bool {
		return msg.DayNumber == 1
	})).Return(nil).Once()
	repo.On("IncrementDeliveryAttempts", mock.Anything, int64(100)).Return(nil).Once()
	repo.On("MarkDeliveredAndSeedNext", mock.Anything, healthy, now).Return(true, nil).Once()
	repo.On("AppendDeliveryLog", mock.Anything, healthy).Return(nil).Once()

	svc := New(repo, dispatcher, newNoopLogger(), time.Second, 10).
		WithClock(func() time.Time { return now })
	result, err := svc.RunDeliveryCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestRunDeliveryCycle_MarkFailureCountsAsFailed(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	row := pendingRow(100, 1, 5, 3)

	repo := new(RepoMock)
	dispatcher := new(DispatcherMock)
	repo.On("ListPendingDeliveries", mock.Anything).Return([]*models.PendingDelivery{row}, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("MarkDeliveredAndSeedNext", mock.Anything, row, now).
		Return(false, errors.New("connection reset")).Once()

	svc := New(repo, dispatcher, newNoopLogger(), time.Second, 10).
		WithClock(func() time.Time { return now })
	result, err := svc.RunDeliveryCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Failed)
	repo.AssertNotCalled(t, "AppendDeliveryLog", mock.Anything, mock.Anything)
}

func TestRunDeliveryCycle_AuditFailureIsNotFatal(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	row := pendingRow(100, 1, 5, 3)

	repo := new(RepoMock)
	dispatcher := new(DispatcherMock)
	repo.On("ListPendingDeliveries", mock.Anything).Return([]*models.PendingDelivery{row}, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("MarkDeliveredAndSeedNext", mock.Anything, row, now).Return(false, nil).Once()
	repo.On("AppendDeliveryLog", mock.Anything, row).Return(errors.New("log table locked")).Once()

	svc := New(repo, dispatcher, newNoopLogger(), time.Second, 10).
		WithClock(func() time.Time { return now })
	result, err := svc.RunDeliveryCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Failed)
}

func TestRunDeliveryCycle_ListFailure(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListPendingDeliveries", mock.Anything).
		Return(nil, errors.New("db down")).Once()

	svc := New(repo, new(DispatcherMock), newNoopLogger(), time.Second, 10)
	_, err := svc.RunDeliveryCycle(context.Background())

	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	startOfDay := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	userID := int64(7)
	recent := []models.ContentDelivery{{ID: 1, UserID: 7, TopicID: 5, DayNumber: 2, IsSent: true}}

	repo := new(RepoMock)
	repo.On("CountPendingDeliveries", mock.Anything, &userID).Return(3, nil).Once()
	repo.On("CountSentSince", mock.Anything, startOfDay, &userID).Return(2, nil).Once()
	repo.On("ListRecentDeliveries", mock.Anything, 10, &userID).Return(recent, nil).Once()

	svc := New(repo, new(DispatcherMock), newNoopLogger(), time.Second, 10).
		WithClock(func() time.Time { return now })
	stats, err := svc.Stats(context.Background(), &userID)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 2, stats.SentToday)
	assert.Equal(t, recent, stats.Recent)
	repo.AssertExpectations(t)
}
