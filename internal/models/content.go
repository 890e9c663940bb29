package models

// Content — авторский материал одного дня программы по теме.
// Ключ: (topic_id, day_number). Планировщик читает контент, но не изменяет.
type Content struct {
	ID          int64  // Идентификатор материала
	TopicID     int64  // Тема
	DayNumber   int    // День программы, начиная с 1
	Title       string // Заголовок
	Description string // Краткое описание
	Body        string // Текст материала
}

// Topic — тема обучения из каталога.
type Topic struct {
	ID   int64  // Идентификатор темы
	Name string // Название темы
}
