// Package treasury управляет внутренней валютой (готами): сбор нектара
// по кулдауну, баланс, история операций и заявки на вывод.
// models.go описывает структуры для таблиц operations и withdraw_requests.
package treasury

import (
	"time"

	"beesmart.ct.ws/colony-bot/internal/game"
)

// Типы операций в журнале.
const (
	OpCollect  = "collect"  // Начисление за сбор нектара
	OpWithdraw = "withdraw" // Списание под заявку на вывод
)

// Статусы заявок на вывод.
const (
	WithdrawPending = "pending" // Ожидает ручной выплаты админом
	WithdrawPaid    = "paid"    // Выплачена
)

// Operation — одна строка журнала операций игрока.
// Журнал append-only: баланс в players — производная величина,
// операции нужны для аудита и истории в веб-приложении.
type Operation struct {
	ID          int64     `db:"id"`          // ID операции
	PlayerID    int64     `db:"player_id"`   // Чья операция
	Amount      int64     `db:"amount"`      // Готы: положительное — начисление, отрицательное — списание
	OpType      string    `db:"op_type"`     // 'collect' или 'withdraw'
	Description string    `db:"description"` // Человекочитаемое описание
	CreatedAt   time.Time `db:"created_at"`  // Когда выполнена
}

// WithdrawRequest — заявка на вывод. Готы списываются сразу при создании,
// выплата TON выполняется админом вручную (/pagado).
type WithdrawRequest struct {
	ID          int64      `db:"id"`           // ID заявки
	PlayerID    int64      `db:"player_id"`    // Кто выводит
	Gotas       int64      `db:"gotas"`        // Списано гот
	Litros      int64      `db:"litros"`       // Запрошено литров
	Wallet      string     `db:"wallet"`       // Кошелёк получателя (нормализованный)
	Status      string     `db:"status"`       // 'pending' или 'paid'
	CreatedAt   time.Time  `db:"created_at"`   // Когда создана
	ProcessedAt *time.Time `db:"processed_at"` // Когда выплачена (NULL для pending)
}

// CollectResult — итог сбора нектара.
type CollectResult struct {
	Reward    int64                // Начислено гот
	Balance   int64                // Баланс после начисления
	BeeCounts map[game.BeeKind]int // Пчёлы по типам на момент сбора
}

// ReminderTarget — игрок, которому пора напомнить о сборе.
type ReminderTarget struct {
	PlayerID   int64
	TelegramID int64
}
