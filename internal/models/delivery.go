package models

import "time"

// ContentDelivery — курсор доставки контента: единственная неотправленная
// запись на пару (user_id, topic_id) представляет «следующий день, который
// пользователю причитается». После успешной отправки is_sent становится true,
// и создаётся запись следующего дня, если для него существует контент.
type ContentDelivery struct {
	ID          int64      // Идентификатор записи
	UserID      int64      // Пользователь
	TopicID     int64      // Тема
	DayNumber   int        // Номер дня программы, начиная с 1
	IsSent      bool       // Контент отправлен
	DeliveredOn *time.Time // Время успешной отправки
	Attempts    int        // Количество неудачных попыток отправки
	CreatedAt   time.Time  // Время создания записи
}

// PendingDelivery — строка выборки планировщика: неотправленная запись
// доставки вместе с данными получателя и контентом соответствующего дня.
type PendingDelivery struct {
	DeliveryID int64     // Идентификатор записи доставки
	UserID     int64     // Пользователь
	UserName   string    // Имя получателя
	Email      string    // Email получателя
	Phone      string    // Телефон получателя
	TopicID    int64     // Тема
	DayNumber  int       // День программы
	Title      string    // Заголовок контента
	Body       string    // Текст контента
	CreatedAt  time.Time // Время создания записи доставки
}

// DeliveryFailure описывает одну неудавшуюся отправку в рамках цикла.
type DeliveryFailure struct {
	DeliveryID int64  `json:"delivery_id"`
	UserID     int64  `json:"user_id"`
	TopicID    int64  `json:"topic_id"`
	DayNumber  int    `json:"day_number"`
	Reason     string `json:"reason"`
}

// CycleResult — итог одного цикла планировщика.
type CycleResult struct {
	Total    int               `json:"total"`    // Всего кандидатов на отправку
	Sent     int               `json:"sent"`     // Успешно отправлено
	Failed   int               `json:"failed"`   // Не отправлено
	Failures []DeliveryFailure `json:"failures,omitempty"`
}

// SchedulerStats — сводка по доставкам без побочных эффектов.
type SchedulerStats struct {
	Pending    int               `json:"pending"`     // Неотправленных записей
	SentToday  int               `json:"sent_today"`  // Отправлено с начала суток
	Recent     []ContentDelivery `json:"recent"`      // Последние доставки
}

// DeliveryMessage — сообщение, публикуемое планировщиком в очередь для
// воркера-отправителя.
type DeliveryMessage struct {
	Email     string `json:"email"`
	UserName  string `json:"user_name"`
	TopicID   int64  `json:"topic_id"`
	DayNumber int    `json:"day_number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// OtpMessage — сообщение с одноразовым кодом для воркера-отправителя.
type OtpMessage struct {
	Email    string `json:"email"`
	UserName string `json:"user_name"`
	Code     string `json:"code"`
}
