// Package payments — защита от повторного использования транзакций.
// Каждый внешний txid может быть погашен ровно один раз; это
// гарантирует уникальный индекс в БД, а не проверка в коде.
// models.go описывает запись о погашенном платеже.
package payments

import "time"

// Категории покупок.
const (
	CategoryBee    = "bee"    // Покупка пчёл
	CategoryColony = "colony" // Покупка колонии
)

// Claim — append-only запись о погашенном платеже.
// Ключ — внешний txid (уникален глобально, на уровне БД).
type Claim struct {
	ID         int64     `db:"id"`          // ID записи
	TxID       string    `db:"txid"`        // Хеш внешней транзакции (UNIQUE)
	PlayerID   int64     `db:"player_id"`   // Кто погасил
	AmountNano int64     `db:"amount_nano"` // Сумма в наноТОН (целое, без округлений)
	Category   string    `db:"category"`    // 'bee' или 'colony'
	Sender     string    `db:"sender"`      // Адрес отправителя, только для аудита
	CreatedAt  time.Time `db:"created_at"`  // Когда погашен
}
