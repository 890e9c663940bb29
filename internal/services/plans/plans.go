// Package plans реализует витрину тарифных планов с кешированием.
package plans

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/microlearn/internal/lib/sl"
	"github.com/magabrotheeeer/microlearn/internal/models"
)

// Время жизни кеша витрины. Каталог меняется редко.
const cacheTTL = time.Hour

const cacheKey = "plans:active"

// Repository описывает методы хранилища, нужные витрине планов.
type Repository interface {
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)
}

// PlansCache описывает кеш витрины.
type PlansCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Service реализует чтение витрины планов.
type Service struct {
	repo  Repository
	cache PlansCache
	log   *slog.Logger
}

// New создает новый экземпляр Service. Кеш может быть nil, тогда каждый
// запрос идёт в хранилище.
func New(repo Repository, cache PlansCache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// List возвращает доступные планы в порядке витрины. Ошибки кеша не
// блокируют ответ: промах или сбой кеша приводит к чтению из хранилища.
func (s *Service) List(ctx context.Context) ([]*models.Plan, error) {
	const op = "plans.List"

	if s.cache != nil {
		var cached []*models.Plan
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("plans cache read failed", sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	result, err := s.repo.ListActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, result, cacheTTL); err != nil {
			s.log.Warn("plans cache write failed", sl.Err(err))
		}
	}
	return result, nil
}
