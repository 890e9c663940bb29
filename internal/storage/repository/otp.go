package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/microlearn/internal/models"
)

// UpsertOtpCode сохраняет одноразовый код для email. Повторный запрос кода
// перезаписывает предыдущую запись: старый код мгновенно теряет силу.
func (s *Storage) UpsertOtpCode(ctx context.Context, code models.OtpCode) error {
	const op = "storage.UpsertOtpCode"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO otp_codes (user_id, email, code, expires_at, used, created_at)
			  VALUES ($1, $2, $3, $4, FALSE, $5)
			  ON CONFLICT (email) DO UPDATE
			  SET user_id = EXCLUDED.user_id,
			      code = EXCLUDED.code,
			      expires_at = EXCLUDED.expires_at,
			      used = FALSE,
			      created_at = EXCLUDED.created_at`
	_, err := s.q.ExecContext(ctx, query,
		code.UserID, code.Email, code.Code, code.ExpiresAt, code.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOtpCodeByEmail возвращает запись одноразового кода для email.
func (s *Storage) GetOtpCodeByEmail(ctx context.Context, email string) (*models.OtpCode, error) {
	const op = "storage.GetOtpCodeByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, email, code, expires_at, used, created_at
			  FROM otp_codes WHERE email = $1`
	row := s.q.QueryRowContext(ctx, query, email)

	var result models.OtpCode
	if err := row.Scan(&result.ID, &result.UserID, &result.Email, &result.Code,
		&result.ExpiresAt, &result.Used, &result.CreatedAt); err != nil {
		return nil, wrapErr(op, err)
	}
	return &result, nil
}

// MarkOtpCodeUsed помечает код потреблённым.
func (s *Storage) MarkOtpCodeUsed(ctx context.Context, id int64) error {
	const op = "storage.MarkOtpCodeUsed"

	query := `UPDATE otp_codes SET used = TRUE WHERE id = $1`
	result, err := s.q.ExecContext(ctx, query, id)
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
