package models

import "time"

// Команды для транзакционных операций хранилища. Сервисы собирают их после
// проверок предусловий, хранилище исполняет в одной транзакции.

// TrialActivation — параметры активации пробного периода.
type TrialActivation struct {
	UserID            int64
	PlanName          string
	ProviderPaymentID string
	Currency          string
	Now               time.Time
	TrialEnd          time.Time
	Preferences       *UserPreferences // nil, если настройки не переданы
	TopicIDs          []int64          // темы, для которых сеются доставки первого дня
}

// TrialResult — итог активации пробного периода.
type TrialResult struct {
	PaymentID      int64     `json:"payment_id"`
	SubscriptionID int64     `json:"subscription_id"`
	TrialEnd       time.Time `json:"trial_end"`
	SkippedTopics  []string  `json:"skipped_topics,omitempty"` // Некорректные элементы списка тем
}

// PaymentActivation — параметры записи платежа и активации подписки.
type PaymentActivation struct {
	UserID            int64
	TopicID           *int64
	SubscriptionID    *int64 // nil — создать новую подписку
	ProviderPaymentID string
	PlanName          string
	Amount            float64
	Currency          string
	Now               time.Time
	RenewalDate       time.Time
}

// PaymentResult — итог проверки платежа.
type PaymentResult struct {
	PaymentID      int64 `json:"payment_id"`
	SubscriptionID int64 `json:"subscription_id"`
}

// TopicPurchase — параметры покупки отдельной темы.
type TopicPurchase struct {
	UserID            int64
	TopicID           int64
	Amount            float64
	Currency          string
	ProviderPaymentID string
	Now               time.Time
}

// PurchaseResult — итог покупки темы.
type PurchaseResult struct {
	UserTopicID int64 `json:"user_topic_id"`
	PaymentID   int64 `json:"payment_id"`
	DeliveryID  int64 `json:"delivery_id"`
}
