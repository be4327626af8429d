// Package admin реализует админ-команды с парольной аутентификацией:
// просмотр pending-заявок на вывод и отметка выплат.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

// Session — активная сессия администратора.
// Сессии живут в памяти: рестарт бота принудительно разлогинивает всех,
// это приемлемая цена за отсутствие таблицы сессий.
type Session struct {
	UserID    int64     // Telegram ID администратора
	Token     string    // Токен (для логов, наружу не отдаётся)
	ExpiresAt time.Time // Когда сессия истекает
}

// loginAttempts — окно неудачных попыток входа одного пользователя
// (защита от перебора пароля).
type loginAttempts struct {
	times []time.Time
}
