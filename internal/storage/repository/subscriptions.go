package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/microlearn/internal/models"
)

// GetActiveSubscription возвращает действующую подписку пользователя.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan_name, status, start_date, next_renewal_date,
			      amount, currency, is_active, auto_renewal, trial_end_date
			  FROM subscriptions
			  WHERE user_id = $1 AND status = 'active' AND is_active`
	row := s.q.QueryRowContext(ctx, query, userID)

	var result models.Subscription
	if err := row.Scan(&result.ID, &result.UserID, &result.PlanName, &result.Status,
		&result.StartDate, &result.NextRenewalDate, &result.Amount, &result.Currency,
		&result.IsActive, &result.AutoRenewal, &result.TrialEndDate); err != nil {
		return nil, wrapErr(op, err)
	}
	return &result, nil
}

// HasEverHadPlan сообщает, была ли у пользователя когда-либо подписка на план.
// Используется для правила «один пробный период на пользователя».
func (s *Storage) HasEverHadPlan(ctx context.Context, userID int64, planName string) (bool, error) {
	const op = "storage.HasEverHadPlan"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM subscriptions WHERE user_id = $1 AND plan_name = $2
			  )`
	var exists bool
	if err := s.q.QueryRowContext(ctx, query, userID, planName).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// MarkSubscriptionExpired переводит подписку в expired и пишет строку аудита.
// Выполняется в одной транзакции.
func (s *Storage) MarkSubscriptionExpired(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.MarkSubscriptionExpired"

	return s.withinTx(ctx, func(tx *Storage) error {
		query := `UPDATE subscriptions
				  SET status = 'expired', is_active = FALSE
				  WHERE id = $1`
		result, err := tx.q.ExecContext(ctx, query, sub.ID)
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
		return tx.appendSubscriptionHistory(ctx, sub.UserID, sub.ID, "expired")
	})
}

// ActivateTrialBundle атомарно создаёт платёж нулевой суммы, пробную подписку,
// настройки пользователя, строку аудита и записи доставки первого дня для
// выбранных тем. Любая ошибка откатывает всё.
func (s *Storage) ActivateTrialBundle(ctx context.Context, act models.TrialActivation) (*models.TrialResult, error) {
	const op = "storage.ActivateTrialBundle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var result models.TrialResult
	err := s.withinTx(ctx, func(tx *Storage) error {
		paymentID, err := tx.insertPayment(ctx, models.Payment{
			UserID:            act.UserID,
			ProviderPaymentID: act.ProviderPaymentID,
			Amount:            0,
			Currency:          act.Currency,
			Status:            models.PaymentStatusFree,
			Method:            "trial",
			CreatedAt:         act.Now,
		})
		if err != nil {
			return err
		}

		var subID int64
		query := `INSERT INTO subscriptions (user_id, plan_name, status, start_date,
				      next_renewal_date, amount, currency, is_active, auto_renewal, trial_end_date)
				  VALUES ($1, $2, 'active', $3, $4, 0, $5, TRUE, FALSE, $4)
				  RETURNING id`
		if err := tx.q.QueryRowContext(ctx, query,
			act.UserID, act.PlanName, act.Now, act.TrialEnd, act.Currency).Scan(&subID); err != nil {
			return wrapErr(op, err)
		}

		if err := tx.attachPaymentSubscription(ctx, paymentID, subID); err != nil {
			return err
		}

		if act.Preferences != nil {
			if err := tx.upsertPreferences(ctx, *act.Preferences); err != nil {
				return err
			}
		}

		if err := tx.appendSubscriptionHistory(ctx, act.UserID, subID, "new_subscription"); err != nil {
			return err
		}

		for _, topicID := range act.TopicIDs {
			if _, err := tx.insertDelivery(ctx, act.UserID, topicID, 1, act.Now); err != nil {
				return err
			}
		}

		result = models.TrialResult{
			PaymentID:      paymentID,
			SubscriptionID: subID,
			TrialEnd:       act.TrialEnd,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordPaymentAndActivate атомарно пишет платёж и либо продлевает указанную
// подписку, либо создаёт новую, привязывая к ней платёж.
func (s *Storage) RecordPaymentAndActivate(ctx context.Context, act models.PaymentActivation) (*models.PaymentResult, error) {
	const op = "storage.RecordPaymentAndActivate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var result models.PaymentResult
	err := s.withinTx(ctx, func(tx *Storage) error {
		paymentID, err := tx.insertPayment(ctx, models.Payment{
			UserID:            act.UserID,
			TopicID:           act.TopicID,
			ProviderPaymentID: act.ProviderPaymentID,
			Amount:            act.Amount,
			Currency:          act.Currency,
			Status:            models.PaymentStatusSuccess,
			Method:            "gateway",
			CreatedAt:         act.Now,
		})
		if err != nil {
			return err
		}

		var subID int64
		if act.SubscriptionID != nil {
			subID = *act.SubscriptionID
			query := `UPDATE subscriptions
					  SET status = 'active', is_active = TRUE, plan_name = $1,
					      amount = $2, currency = $3, next_renewal_date = $4,
					      start_date = $5
					  WHERE id = $6`
			res, err := tx.q.ExecContext(ctx, query,
				act.PlanName, act.Amount, act.Currency, act.RenewalDate, act.Now, subID)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			rowsAffected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if rowsAffected == 0 {
				return fmt.Errorf("%s: %w", op, ErrNotFound)
			}
			if err := tx.appendSubscriptionHistory(ctx, act.UserID, subID, "renewed"); err != nil {
				return err
			}
		} else {
			query := `INSERT INTO subscriptions (user_id, plan_name, status, start_date,
					      next_renewal_date, amount, currency, is_active, auto_renewal)
					  VALUES ($1, $2, 'active', $3, $4, $5, $6, TRUE, FALSE)
					  RETURNING id`
			if err := tx.q.QueryRowContext(ctx, query,
				act.UserID, act.PlanName, act.Now, act.RenewalDate,
				act.Amount, act.Currency).Scan(&subID); err != nil {
				return wrapErr(op, err)
			}
			if err := tx.appendSubscriptionHistory(ctx, act.UserID, subID, "new_subscription"); err != nil {
				return err
			}
		}

		if err := tx.attachPaymentSubscription(ctx, paymentID, subID); err != nil {
			return err
		}

		result = models.PaymentResult{PaymentID: paymentID, SubscriptionID: subID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// IsDuplicateErr сообщает, вызвана ли ошибка нарушением уникальности.
func IsDuplicateErr(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

func (s *Storage) upsertPreferences(ctx context.Context, prefs models.UserPreferences) error {
	const op = "storage.upsertPreferences"

	topicIDs, err := json.Marshal(prefs.TopicIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO user_preferences (user_id, topic_ids, delivery_channel, delivery_time, updated_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (user_id) DO UPDATE
			  SET topic_ids = EXCLUDED.topic_ids,
			      delivery_channel = EXCLUDED.delivery_channel,
			      delivery_time = EXCLUDED.delivery_time,
			      updated_at = EXCLUDED.updated_at`
	if _, err := s.q.ExecContext(ctx, query,
		prefs.UserID, topicIDs, prefs.DeliveryChannel, prefs.DeliveryTime, prefs.UpdatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) appendSubscriptionHistory(ctx context.Context, userID, subID int64, action string) error {
	const op = "storage.appendSubscriptionHistory"

	query := `INSERT INTO subscription_history (user_id, subscription_id, action)
			  VALUES ($1, $2, $3)`
	if _, err := s.q.ExecContext(ctx, query, userID, subID, action); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
