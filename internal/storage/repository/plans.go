package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/microlearn/internal/models"
)

// GetPlanByName возвращает план из каталога по машинному имени.
func (s *Storage) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	const op = "storage.GetPlanByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT name, display_name, amount, currency, duration_days,
			      is_trial, is_active, sort_order, features
			  FROM plans WHERE name = $1`
	row := s.q.QueryRowContext(ctx, query, name)

	var result models.Plan
	var features []byte
	if err := row.Scan(&result.Name, &result.DisplayName, &result.Amount, &result.Currency,
		&result.DurationDays, &result.IsTrial, &result.IsActive, &result.SortOrder,
		&features); err != nil {
		return nil, wrapErr(op, err)
	}
	if err := json.Unmarshal(features, &result.Features); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListActivePlans возвращает доступные планы в порядке сортировки витрины.
func (s *Storage) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListActivePlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT name, display_name, amount, currency, duration_days,
			      is_trial, is_active, sort_order, features
			  FROM plans
			  WHERE is_active
			  ORDER BY sort_order`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Plan
	for rows.Next() {
		var item models.Plan
		var features []byte
		if err := rows.Scan(&item.Name, &item.DisplayName, &item.Amount, &item.Currency,
			&item.DurationDays, &item.IsTrial, &item.IsActive, &item.SortOrder,
			&features); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(features, &item.Features); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindMissingTopics возвращает идентификаторы тем, отсутствующие в каталоге.
func (s *Storage) FindMissingTopics(ctx context.Context, ids []int64) ([]int64, error) {
	const op = "storage.FindMissingTopics"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT candidate.id
			  FROM unnest($1::bigint[]) AS candidate(id)
			  LEFT JOIN topics t ON t.id = candidate.id
			  WHERE t.id IS NULL`
	rows, err := s.q.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		missing = append(missing, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return missing, nil
}
