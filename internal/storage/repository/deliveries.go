package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/microlearn/internal/models"
)

// insertDelivery создаёт неотправленную запись доставки указанного дня.
// Частичный уникальный индекс гарантирует не более одного курсора на пару
// (пользователь, тема).
func (s *Storage) insertDelivery(ctx context.Context, userID, topicID int64, day int, now time.Time) (int64, error) {
	const op = "storage.insertDelivery"

	query := `INSERT INTO user_content_deliveries (user_id, topic_id, day_number, is_sent, created_at)
			  VALUES ($1, $2, $3, FALSE, $4)
			  RETURNING id`
	var newID int64
	if err := s.q.QueryRowContext(ctx, query, userID, topicID, day, now).Scan(&newID); err != nil {
		return 0, wrapErr(op, err)
	}
	return newID, nil
}

// ListPendingDeliveries возвращает все неотправленные записи доставки вместе
// с данными получателя и контентом соответствующего дня, старые первыми.
func (s *Storage) ListPendingDeliveries(ctx context.Context) ([]*models.PendingDelivery, error) {
	const op = "storage.ListPendingDeliveries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT d.id, d.user_id, u.name, u.email, u.phone, d.topic_id, d.day_number,
			      c.title, c.body, d.created_at
			  FROM user_content_deliveries d
			  JOIN users u ON u.id = d.user_id
			  JOIN contents c ON c.topic_id = d.topic_id AND c.day_number = d.day_number
			  WHERE NOT d.is_sent
			  ORDER BY d.created_at`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.PendingDelivery
	for rows.Next() {
		var item models.PendingDelivery
		if err := rows.Scan(&item.DeliveryID, &item.UserID, &item.UserName, &item.Email,
			&item.Phone, &item.TopicID, &item.DayNumber, &item.Title, &item.Body,
			&item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkDeliveredAndSeedNext в одной транзакции помечает запись отправленной и,
// если для следующего дня существует контент, создаёт запись следующего дня.
// Возвращает true, если запись следующего дня создана; false означает, что
// пользователь догнал доступный контент и цепочка доставки завершена.
func (s *Storage) MarkDeliveredAndSeedNext(ctx context.Context, d *models.PendingDelivery, now time.Time) (bool, error) {
	const op = "storage.MarkDeliveredAndSeedNext"

	var seeded bool
	err := s.withinTx(ctx, func(tx *Storage) error {
		query := `UPDATE user_content_deliveries
				  SET is_sent = TRUE, delivered_on = $1
				  WHERE id = $2 AND NOT is_sent`
		result, err := tx.q.ExecContext(ctx, query, now, d.DeliveryID)
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

		var nextExists bool
		probe := `SELECT EXISTS (
				      SELECT 1 FROM contents WHERE topic_id = $1 AND day_number = $2
				  )`
		if err := tx.q.QueryRowContext(ctx, probe, d.TopicID, d.DayNumber+1).Scan(&nextExists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !nextExists {
			return nil
		}

		if _, err := tx.insertDelivery(ctx, d.UserID, d.TopicID, d.DayNumber+1, now); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

// IncrementDeliveryAttempts увеличивает счётчик неудачных попыток отправки.
func (s *Storage) IncrementDeliveryAttempts(ctx context.Context, deliveryID int64) error {
	const op = "storage.IncrementDeliveryAttempts"

	query := `UPDATE user_content_deliveries SET attempts = attempts + 1 WHERE id = $1`
	if _, err := s.q.ExecContext(ctx, query, deliveryID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AppendDeliveryLog пишет строку аудита об успешной доставке. Вызывающая
// сторона трактует ошибку как некритичную.
func (s *Storage) AppendDeliveryLog(ctx context.Context, d *models.PendingDelivery) error {
	const op = "storage.AppendDeliveryLog"

	query := `INSERT INTO delivery_log (delivery_id, user_id, topic_id, day_number)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.q.ExecContext(ctx, query, d.DeliveryID, d.UserID, d.TopicID, d.DayNumber); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountPendingDeliveries считает неотправленные записи, опционально по одному
// пользователю.
func (s *Storage) CountPendingDeliveries(ctx context.Context, userID *int64) (int, error) {
	const op = "storage.CountPendingDeliveries"

	query := `SELECT COUNT(*) FROM user_content_deliveries
			  WHERE NOT is_sent AND ($1::bigint IS NULL OR user_id = $1)`
	var count int
	if err := s.q.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountSentSince считает доставки, отправленные начиная с момента since.
func (s *Storage) CountSentSince(ctx context.Context, since time.Time, userID *int64) (int, error) {
	const op = "storage.CountSentSince"

	query := `SELECT COUNT(*) FROM user_content_deliveries
			  WHERE is_sent AND delivered_on >= $1
			      AND ($2::bigint IS NULL OR user_id = $2)`
	var count int
	if err := s.q.QueryRowContext(ctx, query, since, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListRecentDeliveries возвращает последние отправленные доставки.
func (s *Storage) ListRecentDeliveries(ctx context.Context, limit int, userID *int64) ([]models.ContentDelivery, error) {
	const op = "storage.ListRecentDeliveries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, topic_id, day_number, is_sent, delivered_on, attempts, created_at
			  FROM user_content_deliveries
			  WHERE is_sent AND ($1::bigint IS NULL OR user_id = $1)
			  ORDER BY delivered_on DESC
			  LIMIT $2`
	rows, err := s.q.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.ContentDelivery
	for rows.Next() {
		var item models.ContentDelivery
		if err := rows.Scan(&item.ID, &item.UserID, &item.TopicID, &item.DayNumber,
			&item.IsSent, &item.DeliveredOn, &item.Attempts, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
