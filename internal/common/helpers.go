// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование игровых величин, работа с временем.
package common

import (
	"fmt"
	"time"
)

// PluralizeGotas возвращает правильную форму слова «gota» для числа n.
// Интерфейс игры испанский, так что правило простое: 1 → "gota", иначе "gotas".
func PluralizeGotas(n int64) string {
	if n == 1 || n == -1 {
		return "gota"
	}
	return "gotas"
}

// FormatGotas форматирует баланс в читабельную строку.
// Пример: FormatGotas(150) → "150 gotas"
func FormatGotas(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizeGotas(n))
}

// FormatDateTime форматирует время для вывода пользователю.
// Пример: "2026-08-31 14:05"
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// Now возвращает текущее время в UTC.
// Все игровые таймстампы (кулдауны, даты рождения пчёл) хранятся в UTC,
// чтобы смена часового пояса сервера не ломала кулдауны.
func Now() time.Time {
	return time.Now().UTC()
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	rest := n / 1000
	last := n % 1000

	if rest > 0 {
		return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
	}
	return fmt.Sprintf("%d", last)
}
