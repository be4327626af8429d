// Package treasury — repository.go выполняет операции с балансом игроков,
// журналом операций и заявками на вывод. Сбор и вывод — транзакционные:
// проверка условий выполняется на строке игрока, взятой FOR UPDATE.
package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/game"
)

// Repository предоставляет методы для работы с казной.
type Repository struct {
	db       *pgxpool.Pool
	settings *game.Settings
}

// NewRepository создаёт репозиторий казны.
func NewRepository(db *pgxpool.Pool, settings *game.Settings) *Repository {
	return &Repository{db: db, settings: settings}
}

// Collect выполняет сбор нектара одной транзакцией:
//  1. Блокируем строку игрока (FOR UPDATE) — два конкурентных сбора
//     сериализуются, второй увидит свежий last_collected и упадёт на кулдауне.
//  2. Проверяем кулдаун на данных под блокировкой.
//  3. Считаем пчёл по типам и награду на момент сбора.
//  4. Начисляем готы, сдвигаем last_collected, сбрасываем флаг напоминания,
//     пишем операцию в журнал.
func (r *Repository) Collect(ctx context.Context, playerID int64, now time.Time) (*CollectResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var gotas int64
	var last *time.Time
	err = tx.QueryRow(ctx,
		`SELECT gotas, last_collected FROM players WHERE id = $1 FOR UPDATE`, playerID,
	).Scan(&gotas, &last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки игрока: %w", err)
	}

	if err := game.CheckCollection(r.settings, last, now); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT b.kind, COUNT(*)
		FROM bees b
		JOIN colonies c ON c.id = b.colony_id
		WHERE c.player_id = $1
		GROUP BY b.kind
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта пчёл: %w", err)
	}
	counts := make(map[game.BeeKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования пчёл: %w", err)
		}
		counts[game.BeeKind(kind)] = n
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, fmt.Errorf("ошибка чтения пчёл: %w", rows.Err())
	}

	reward := game.CollectionReward(counts)

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET gotas = gotas + $2, last_collected = $3, reminder_sent = FALSE, updated_at = NOW()
		WHERE id = $1
	`, playerID, reward, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления гот: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO operations (player_id, amount, op_type, description)
		VALUES ($1, $2, $3, $4)
	`, playerID, reward, OpCollect, "Recolección de néctar")
	if err != nil {
		return nil, fmt.Errorf("ошибка записи операции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита: %w", err)
	}

	return &CollectResult{
		Reward:    reward,
		Balance:   gotas + reward,
		BeeCounts: counts,
	}, nil
}

// WithdrawParams — параметры создания заявки на вывод.
// Gotas и Litros уже пересчитаны и проверены сервисом.
type WithdrawParams struct {
	PlayerID int64
	Gotas    int64
	Litros   int64
	Wallet   string
}

// Withdraw создаёт заявку на вывод одной транзакцией: блокировка строки
// игрока, проверка баланса, списание, заявка и запись в журнал.
// Конкурентные выводы сериализуются на блокировке — уйти в минус нельзя.
func (r *Repository) Withdraw(ctx context.Context, p WithdrawParams) (*WithdrawRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var gotas int64
	err = tx.QueryRow(ctx,
		`SELECT gotas FROM players WHERE id = $1 FOR UPDATE`, p.PlayerID,
	).Scan(&gotas)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки игрока: %w", err)
	}

	if gotas < p.Gotas {
		return nil, common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx,
		`UPDATE players SET gotas = gotas - $2, updated_at = NOW() WHERE id = $1`,
		p.PlayerID, p.Gotas,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания гот: %w", err)
	}

	var req WithdrawRequest
	err = tx.QueryRow(ctx, `
		INSERT INTO withdraw_requests (player_id, gotas, litros, wallet, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, player_id, gotas, litros, wallet, status, created_at, processed_at
	`, p.PlayerID, p.Gotas, p.Litros, p.Wallet, WithdrawPending).Scan(
		&req.ID, &req.PlayerID, &req.Gotas, &req.Litros, &req.Wallet,
		&req.Status, &req.CreatedAt, &req.ProcessedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания заявки: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO operations (player_id, amount, op_type, description)
		VALUES ($1, $2, $3, $4)
	`, p.PlayerID, -p.Gotas, OpWithdraw, fmt.Sprintf("Retiro de %d litros", p.Litros))
	if err != nil {
		return nil, fmt.Errorf("ошибка записи операции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита: %w", err)
	}
	return &req, nil
}

// Balance возвращает текущий баланс игрока в готах.
func (r *Repository) Balance(ctx context.Context, playerID int64) (int64, error) {
	var gotas int64
	err := r.db.QueryRow(ctx,
		`SELECT gotas FROM players WHERE id = $1`, playerID,
	).Scan(&gotas)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("ошибка чтения баланса: %w", err)
	}
	return gotas, nil
}

// History возвращает последние операции игрока.
func (r *Repository) History(ctx context.Context, playerID int64, limit int) ([]*Operation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, amount, op_type, description, created_at
		FROM operations
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения операций: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.ID, &op.PlayerID, &op.Amount, &op.OpType, &op.Description, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования операции: %w", err)
		}
		ops = append(ops, &op)
	}
	return ops, nil
}

// PendingWithdrawals возвращает все заявки, ожидающие выплаты (для админки).
func (r *Repository) PendingWithdrawals(ctx context.Context) ([]*WithdrawRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, gotas, litros, wallet, status, created_at, processed_at
		FROM withdraw_requests
		WHERE status = $1
		ORDER BY created_at
	`, WithdrawPending)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()

	var reqs []*WithdrawRequest
	for rows.Next() {
		var req WithdrawRequest
		if err := rows.Scan(&req.ID, &req.PlayerID, &req.Gotas, &req.Litros, &req.Wallet,
			&req.Status, &req.CreatedAt, &req.ProcessedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		reqs = append(reqs, &req)
	}
	return reqs, nil
}

// MarkPaid помечает pending-заявку выплаченной.
func (r *Repository) MarkPaid(ctx context.Context, requestID int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE withdraw_requests
		SET status = $2, processed_at = NOW()
		WHERE id = $1 AND status = $3
	`, requestID, WithdrawPaid, WithdrawPending)
	if err != nil {
		return fmt.Errorf("ошибка обновления заявки: %w", err)
	}
	if result.RowsAffected() == 0 {
		return common.ErrWithdrawalNotFound
	}
	return nil
}

// PlayersReadyForReminder возвращает игроков, у которых кулдаун сбора
// уже истёк и которым напоминание ещё не отправлялось.
func (r *Repository) PlayersReadyForReminder(ctx context.Context, cutoff time.Time) ([]*ReminderTarget, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, telegram_id
		FROM players
		WHERE reminder_sent = FALSE
		  AND last_collected IS NOT NULL
		  AND last_collected <= $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки игроков для напоминания: %w", err)
	}
	defer rows.Close()

	var targets []*ReminderTarget
	for rows.Next() {
		var t ReminderTarget
		if err := rows.Scan(&t.PlayerID, &t.TelegramID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования игрока: %w", err)
		}
		targets = append(targets, &t)
	}
	return targets, nil
}

// MarkReminded ставит флаг «напоминание отправлено».
// Флаг сбрасывается при следующем сборе.
func (r *Repository) MarkReminded(ctx context.Context, playerID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE players SET reminder_sent = TRUE WHERE id = $1`, playerID,
	)
	if err != nil {
		return fmt.Errorf("ошибка установки флага напоминания: %w", err)
	}
	return nil
}
