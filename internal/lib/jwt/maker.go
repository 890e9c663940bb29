// Package jwt реализует выдачу и разбор JWT-токенов сессии, которые
// пользователь получает после успешной проверки одноразового кода.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и разбора токенов сессии.
type Maker interface {
	// GenerateToken выпускает токен для пользователя с указанным id и email.
	GenerateToken(userID int64, email string) (string, error)
	// ParseToken проверяет подпись токена и возвращает его claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на секретном ключе HMAC и фиксированном TTL.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов
	tokenTTL  time.Duration // Время жизни токена
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
