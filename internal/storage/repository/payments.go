package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/microlearn/internal/models"
)

// insertPayment добавляет строку в журнал платежей и возвращает её ID.
func (s *Storage) insertPayment(ctx context.Context, p models.Payment) (int64, error) {
	const op = "storage.insertPayment"

	query := `INSERT INTO payments (user_id, topic_id, subscription_id, provider_payment_id,
			      amount, currency, status, method, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID int64
	err := s.q.QueryRowContext(ctx, query,
		p.UserID, p.TopicID, p.SubscriptionID, p.ProviderPaymentID,
		p.Amount, p.Currency, p.Status, p.Method, p.CreatedAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// attachPaymentSubscription привязывает подписку к уже записанному платежу.
// Единственное допустимое изменение строки журнала.
func (s *Storage) attachPaymentSubscription(ctx context.Context, paymentID, subID int64) error {
	const op = "storage.attachPaymentSubscription"

	query := `UPDATE payments SET subscription_id = $1 WHERE id = $2`
	result, err := s.q.ExecContext(ctx, query, subID, paymentID)
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

// ListPayments возвращает журнал платежей пользователя, новые сверху.
func (s *Storage) ListPayments(ctx context.Context, userID int64, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, topic_id, subscription_id, provider_payment_id,
			      amount, currency, status, method, created_at
			  FROM payments
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.q.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Payment
	for rows.Next() {
		var item models.Payment
		if err := rows.Scan(&item.ID, &item.UserID, &item.TopicID, &item.SubscriptionID,
			&item.ProviderPaymentID, &item.Amount, &item.Currency, &item.Status,
			&item.Method, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
