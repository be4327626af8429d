// Package apiary управляет колониями и пчёлами: покупка за TON,
// проверка платежа, защита от повторного txid и атомарная выдача.
// models.go описывает структуры для таблиц colonies и bees.
package apiary

import (
	"time"

	"beesmart.ct.ws/colony-bot/internal/game"
)

// Colony представляет колонию (улей) игрока.
// Тип фиксируется при создании и определяет, какие пчёлы и сколько
// могут в ней жить (таблица вместимости в internal/game).
type Colony struct {
	ID        int64           `db:"id"`         // ID колонии
	PlayerID  int64           `db:"player_id"`  // Владелец
	Name      string          `db:"name"`       // Отображаемое имя ("Colmena oro")
	Kind      game.ColonyKind `db:"kind"`       // Тип из фиксированного перечисления
	CreatedAt time.Time       `db:"created_at"` // Когда куплена/выдана
}

// Bee представляет одну пчелу в колонии.
type Bee struct {
	ID       int64        `db:"id"`        // ID пчелы
	ColonyID int64        `db:"colony_id"` // Колония, в которой живёт
	Kind     game.BeeKind `db:"kind"`      // Тип из фиксированного перечисления
	BornAt   time.Time    `db:"born_at"`   // Когда куплена/выдана
}

// ColonySummary — колония с подсчётом пчёл по типам.
// Используется в статусе игрока для веб-приложения.
type ColonySummary struct {
	ID        int64          `json:"id"`
	Name      string         `json:"nombre"`
	Kind      string         `json:"type"`
	CreatedAt time.Time      `json:"fecha_creacion"`
	Bees      map[string]int `json:"abejas_por_tipo"`
	TotalBees int            `json:"total_abejas"`
}
