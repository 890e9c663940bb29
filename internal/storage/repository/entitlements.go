package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/microlearn/internal/models"
)

// HasUserTopic сообщает, есть ли у пользователя право на тему.
func (s *Storage) HasUserTopic(ctx context.Context, userID, topicID int64) (bool, error) {
	const op = "storage.HasUserTopic"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM user_topics WHERE user_id = $1 AND topic_id = $2
			  )`
	var exists bool
	if err := s.q.QueryRowContext(ctx, query, userID, topicID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListUserTopics возвращает права пользователя на темы.
func (s *Storage) ListUserTopics(ctx context.Context, userID int64) ([]*models.UserTopic, error) {
	const op = "storage.ListUserTopics"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, topic_id, purchase_date, expiry_date,
			      amount_paid, plan_name, payment_status
			  FROM user_topics
			  WHERE user_id = $1
			  ORDER BY purchase_date`
	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.UserTopic
	for rows.Next() {
		var item models.UserTopic
		if err := rows.Scan(&item.ID, &item.UserID, &item.TopicID, &item.PurchaseDate,
			&item.ExpiryDate, &item.AmountPaid, &item.PlanName, &item.PaymentStatus); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// PurchaseTopicBundle атомарно создаёт право на тему, строку платежа и запись
// доставки первого дня. Повторная покупка той же темы возвращает ErrDuplicate.
func (s *Storage) PurchaseTopicBundle(ctx context.Context, purchase models.TopicPurchase) (*models.PurchaseResult, error) {
	const op = "storage.PurchaseTopicBundle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var result models.PurchaseResult
	err := s.withinTx(ctx, func(tx *Storage) error {
		var userTopicID int64
		query := `INSERT INTO user_topics (user_id, topic_id, purchase_date, amount_paid,
				      plan_name, payment_status)
				  VALUES ($1, $2, $3, $4, 'single_topic', 'success')
				  RETURNING id`
		if err := tx.q.QueryRowContext(ctx, query,
			purchase.UserID, purchase.TopicID, purchase.Now, purchase.Amount).Scan(&userTopicID); err != nil {
			return wrapErr(op, err)
		}

		topicID := purchase.TopicID
		paymentID, err := tx.insertPayment(ctx, models.Payment{
			UserID:            purchase.UserID,
			TopicID:           &topicID,
			ProviderPaymentID: purchase.ProviderPaymentID,
			Amount:            purchase.Amount,
			Currency:          purchase.Currency,
			Status:            models.PaymentStatusSuccess,
			Method:            "gateway",
			CreatedAt:         purchase.Now,
		})
		if err != nil {
			return err
		}

		deliveryID, err := tx.insertDelivery(ctx, purchase.UserID, purchase.TopicID, 1, purchase.Now)
		if err != nil {
			return err
		}

		result = models.PurchaseResult{
			UserTopicID: userTopicID,
			PaymentID:   paymentID,
			DeliveryID:  deliveryID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
