package models

import "time"

// OtpCode представляет одноразовый код входа, привязанный к email.
// На один email существует не более одной активной записи: повторный запрос
// кода перезаписывает предыдущую (upsert), старый код мгновенно теряет силу.
type OtpCode struct {
	ID        int64     // Идентификатор записи
	UserID    int64     // Владелец кода
	Email     string    // Email, на который выдан код
	Code      string    // 6-значный числовой код
	ExpiresAt time.Time // Момент истечения (выдача + 10 минут)
	Used      bool      // Код потреблён (успешная проверка или обнаруженное истечение)
	CreatedAt time.Time // Время выдачи
}
