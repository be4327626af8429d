// Package players управляет игроками: регистрацией по Telegram ID,
// балансом гот и флагом туториала.
// models.go описывает структуры данных для работы с таблицей players.
package players

import "time"

// Player представляет игрока в базе данных.
// Создаётся при первом /start; telegram_id уникален и отображается
// на внутренний числовой id один-к-одному.
type Player struct {
	ID            int64      `db:"id"`             // Внутренний автоинкрементный ID
	TelegramID    int64      `db:"telegram_id"`    // Telegram user ID (уникальный)
	Username      string     `db:"username"`       // @username (может быть пустым)
	FirstName     string     `db:"first_name"`     // Имя пользователя
	Gotas         int64      `db:"gotas"`          // Баланс гот (внутренняя валюта)
	Tutorial      bool       `db:"tutorial"`       // Пройден ли туториал веб-приложения
	LastCollected *time.Time `db:"last_collected"` // Последний успешный сбор нектара (nil — ни разу)
	ReminderSent  bool       `db:"reminder_sent"`  // Отправлено ли напоминание о созревшем нектаре
	CreatedAt     time.Time  `db:"created_at"`     // Когда запись создана
	UpdatedAt     time.Time  `db:"updated_at"`     // Последнее обновление записи
}

// DisplayName возвращает отображаемое имя игрока.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	return p.FirstName
}
