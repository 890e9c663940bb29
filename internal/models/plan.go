package models

// Plan представляет тарифный план из каталога. Каталог заполняется извне,
// сервис читает его только для отображения и проверок при активации.
type Plan struct {
	Name         string   // Машинное имя плана ("trial", "monthly" и т.д.)
	DisplayName  string   // Отображаемое название
	Amount       float64  // Стоимость
	Currency     string   // Валюта (ISO-код)
	DurationDays int      // Длительность в днях
	IsTrial      bool     // Признак пробного плана
	IsActive     bool     // План доступен для покупки
	SortOrder    int      // Порядок сортировки в витрине
	Features     []string // Список возможностей плана
}
