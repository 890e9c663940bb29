package models

// Структуры для приёма данных из JSON-запросов до их валидации и
// преобразования в доменные типы. Темы в настройках приходят строками,
// чтобы некорректные значения можно было отфильтровать и вернуть вызывающему.

// DummyPreferences — настройки доставки из тела запроса активации.
type DummyPreferences struct {
	Topics          []string `json:"topics" validate:"required,min=1"`              // Идентификаторы тем строками
	DeliveryChannel string   `json:"delivery_channel" validate:"omitempty,oneof=email whatsapp"` // Канал доставки
	DeliveryTime    string   `json:"delivery_time" validate:"omitempty"`            // Время доставки "HH:MM"
}

// DummyTrialActivation — запрос активации пробного периода.
type DummyTrialActivation struct {
	PlanName    string            `json:"plan_name" validate:"required"`
	Preferences *DummyPreferences `json:"preferences,omitempty" validate:"omitempty"`
}

// DummyOtpRequest — запрос на выдачу одноразового кода.
type DummyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// DummyOtpVerify — запрос на проверку одноразового кода.
type DummyOtpVerify struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// DummyPaymentVerify — данные клиентского чекаута для проверки подписи.
type DummyPaymentVerify struct {
	OrderID        string  `json:"order_id" validate:"required"`
	PaymentID      string  `json:"payment_id" validate:"required"`
	Signature      string  `json:"signature" validate:"required"`
	TopicID        *int64  `json:"topic_id,omitempty"`
	SubscriptionID *int64  `json:"subscription_id,omitempty"`
	PlanName       string  `json:"plan_name" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency" validate:"required,len=3"`
}

// DummyTopicPurchase — запрос покупки отдельной темы.
type DummyTopicPurchase struct {
	TopicID int64   `json:"topic_id" validate:"required,gt=0"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
}

// DummyOrderCreate — запрос на создание заказа у платёжного провайдера.
type DummyOrderCreate struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
}
