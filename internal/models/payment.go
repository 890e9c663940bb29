package models

import "time"

// Статусы платежа в журнале.
const (
	PaymentStatusSuccess = "success"
	PaymentStatusFree    = "free_trial"
)

// Payment — строка журнала платежей. Журнал только пополняется; единственное
// допустимое изменение — привязка subscription_id после создания подписки.
type Payment struct {
	ID                int64     // Идентификатор записи
	UserID            int64     // Плательщик
	TopicID           *int64    // Тема, если платёж за отдельную тему
	SubscriptionID    *int64    // Подписка, привязывается после её создания
	ProviderPaymentID string    // Идентификатор платежа у провайдера
	Amount            float64   // Сумма
	Currency          string    // Валюта
	Status            string    // success | free_trial | failed
	Method            string    // Способ оплаты
	CreatedAt         time.Time // Время платежа
}
