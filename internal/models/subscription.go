package models

import "time"

// Статусы подписки.
const (
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

// Subscription представляет подписку пользователя на тарифный план.
// У пользователя в любой момент времени может быть не более одной записи
// со status=active и is_active=true.
type Subscription struct {
	ID              int64      // Идентификатор подписки
	UserID          int64      // Владелец подписки
	PlanName        string     // Машинное имя плана
	Status          string     // active | expired
	StartDate       time.Time  // Дата начала
	NextRenewalDate time.Time  // Дата следующего продления
	Amount          float64    // Оплаченная сумма
	Currency        string     // Валюта
	IsActive        bool       // Подписка действует
	AutoRenewal     bool       // Автопродление
	TrialEndDate    *time.Time // Дата окончания пробного периода, nil для платных планов
}

// SubscriptionHistory — строка аудита изменений подписки.
type SubscriptionHistory struct {
	ID             int64     // Идентификатор записи
	UserID         int64     // Пользователь
	SubscriptionID int64     // Подписка
	Action         string    // Тип события: new_subscription, expired, renewed
	CreatedAt      time.Time // Время события
}
