package plans

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

func (m *RepoMock) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	if args.Bool(0) {
		*(result.(*[]*models.Plan)) = args.Get(2).([]*models.Plan)
	}
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testPlans() []*models.Plan {
	return []*models.Plan{
		{Name: "trial", DisplayName: "Trial", DurationDays: 7, IsTrial: true},
		{Name: "monthly", DisplayName: "Monthly", Amount: 499, DurationDays: 30},
	}
}

func TestList_CacheHit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", "plans:active", mock.Anything).Return(true, nil, testPlans()).Once()

	svc := New(repo, cache, newNoopLogger())
	result, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, result, 2)
	repo.AssertNotCalled(t, "ListActivePlans", mock.Anything)
}

func TestList_CacheMissFillsCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", "plans:active", mock.Anything).Return(false, nil, nil).Once()
	repo.On("ListActivePlans", mock.Anything).Return(testPlans(), nil).Once()
	cache.On("Set", "plans:active", mock.Anything, time.Hour).Return(nil).Once()

	svc := New(repo, cache, newNoopLogger())
	result, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, result, 2)
	cache.AssertExpectations(t)
}

func TestList_CacheFailureFallsThrough(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", "plans:active", mock.Anything).Return(false, errors.New("redis down"), nil).Once()
	repo.On("ListActivePlans", mock.Anything).Return(testPlans(), nil).Once()
	cache.On("Set", "plans:active", mock.Anything, time.Hour).Return(errors.New("redis down")).Once()

	svc := New(repo, cache, newNoopLogger())
	result, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestList_NilCache(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListActivePlans", mock.Anything).Return(testPlans(), nil).Once()

	svc := New(repo, nil, newNoopLogger())
	result, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestList_StorageFailure(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListActivePlans", mock.Anything).Return(nil, errors.New("db down")).Once()

	svc := New(repo, nil, newNoopLogger())
	_, err := svc.List(context.Background())

	assert.Error(t, err)
}
