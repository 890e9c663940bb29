// Package models содержит доменные структуры платформы микрообучения:
// пользователей, планы, подписки, права доступа к темам и записи доставки контента.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID          int64      // Уникальный идентификатор пользователя
	Name        string     // Имя пользователя
	Email       string     // Электронная почта (уникальная)
	Phone       string     // Телефон для доставки контента
	LastLoginAt *time.Time // Время последнего входа, nil если пользователь ни разу не входил
}
