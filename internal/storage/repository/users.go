package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/microlearn/internal/models"
)

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, phone, last_login_at
			  FROM users WHERE email = $1`
	row := s.q.QueryRowContext(ctx, query, email)

	var result models.User
	if err := row.Scan(&result.ID, &result.Name, &result.Email, &result.Phone,
		&result.LastLoginAt); err != nil {
		return nil, wrapErr(op, err)
	}
	return &result, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, phone, last_login_at
			  FROM users WHERE id = $1`
	row := s.q.QueryRowContext(ctx, query, id)

	var result models.User
	if err := row.Scan(&result.ID, &result.Name, &result.Email, &result.Phone,
		&result.LastLoginAt); err != nil {
		return nil, wrapErr(op, err)
	}
	return &result, nil
}

// UpdateLastLogin проставляет время последнего входа пользователя.
func (s *Storage) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	const op = "storage.UpdateLastLogin"

	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`
	result, err := s.q.ExecContext(ctx, query, at, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
