package models

import "time"

// UserTopic представляет право пользователя на доступ к теме.
// Пара (user_id, topic_id) уникальна: повторная покупка той же темы отклоняется.
type UserTopic struct {
	ID            int64      // Идентификатор записи
	UserID        int64      // Пользователь
	TopicID       int64      // Тема
	PurchaseDate  time.Time  // Дата покупки или активации
	ExpiryDate    *time.Time // Дата истечения доступа, nil — бессрочный доступ
	AmountPaid    float64    // Уплаченная сумма
	PlanName      string     // План, в рамках которого получен доступ
	PaymentStatus string     // Статус оплаты
}

// IsExpired сообщает, истёк ли доступ на момент now. Статус не хранится,
// а вычисляется при чтении по дате истечения.
func (ut *UserTopic) IsExpired(now time.Time) bool {
	return ut.ExpiryDate != nil && now.After(*ut.ExpiryDate)
}

// UserPreferences хранит настройки доставки пользователя. Одна запись на
// пользователя, конфликт по user_id обновляет все поля.
type UserPreferences struct {
	UserID          int64     // Пользователь
	TopicIDs        []int64   // Выбранные темы
	DeliveryChannel string    // Канал доставки: email | whatsapp
	DeliveryTime    string    // Предпочитаемое время доставки, "HH:MM"
	UpdatedAt       time.Time // Время последнего изменения
}
