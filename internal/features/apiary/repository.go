// Package apiary — repository.go выполняет все операции с таблицами colonies и bees.
// Выдача покупок (GrantColony, GrantBees) — транзакционная: захват txid,
// повторная проверка правил на данных, прочитанных под блокировкой,
// и вставка — фиксируются одним коммитом или откатываются целиком.
package apiary

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/payments"
	"beesmart.ct.ws/colony-bot/internal/game"
)

// Repository предоставляет методы для работы с колониями и пчёлами.
type Repository struct {
	db       *pgxpool.Pool
	claims   *payments.Repository
	settings *game.Settings
}

// NewRepository создаёт репозиторий пасеки.
func NewRepository(db *pgxpool.Pool, claims *payments.Repository, settings *game.Settings) *Repository {
	return &Repository{db: db, claims: claims, settings: settings}
}

// GetColony возвращает колонию по ID с проверкой владельца.
func (r *Repository) GetColony(ctx context.Context, colonyID, playerID int64) (*Colony, error) {
	query := `
		SELECT id, player_id, name, kind, created_at
		FROM colonies
		WHERE id = $1 AND player_id = $2
	`
	var c Colony
	err := r.db.QueryRow(ctx, query, colonyID, playerID).Scan(
		&c.ID, &c.PlayerID, &c.Name, &c.Kind, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrColonyNotFound
		}
		return nil, fmt.Errorf("ошибка чтения колонии (id=%d): %w", colonyID, err)
	}
	return &c, nil
}

// CountColonies возвращает число колоний игрока.
func (r *Repository) CountColonies(ctx context.Context, playerID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM colonies WHERE player_id = $1`, playerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта колоний: %w", err)
	}
	return n, nil
}

// CountBees возвращает число пчёл данного типа в колонии.
func (r *Repository) CountBees(ctx context.Context, colonyID int64, kind game.BeeKind) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bees WHERE colony_id = $1 AND kind = $2`, colonyID, string(kind),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пчёл: %w", err)
	}
	return n, nil
}

// GrantColonyParams — параметры выдачи купленной колонии.
type GrantColonyParams struct {
	PlayerID int64
	Kind     game.ColonyKind
	Name     string
	Claim    *payments.Claim
}

// GrantColony выдаёт купленную колонию одной транзакцией:
//  1. Блокируем строку игрока (FOR UPDATE) — конкурентные покупки
//     этого игрока сериализуются здесь.
//  2. Захватываем txid (уникальная вставка) — повтор = ErrReplayDetected.
//  3. Пересчитываем колонии под блокировкой и повторяем проверку правил:
//     предварительная проверка снаружи могла устареть.
//  4. Вставляем колонию.
//
// Любая ошибка откатывает всё: без выдачи не бывает погашенного txid.
func (r *Repository) GrantColony(ctx context.Context, p GrantColonyParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM players WHERE id = $1 FOR UPDATE`, p.PlayerID,
	).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrPlayerNotFound
		}
		return fmt.Errorf("ошибка блокировки игрока: %w", err)
	}

	if err := r.claims.InsertClaim(ctx, tx, p.Claim); err != nil {
		return err
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM colonies WHERE player_id = $1`, p.PlayerID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("ошибка подсчёта колоний: %w", err)
	}

	// Повторная проверка правил на данных внутри транзакции
	if err := game.CheckColonyPurchase(r.settings, p.Kind, count); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO colonies (player_id, name, kind) VALUES ($1, $2, $3)
	`, p.PlayerID, p.Name, string(p.Kind))
	if err != nil {
		return fmt.Errorf("ошибка создания колонии: %w", err)
	}

	return tx.Commit(ctx)
}

// GrantBeesParams — параметры выдачи купленных пчёл.
type GrantBeesParams struct {
	PlayerID int64
	ColonyID int64
	Kind     game.BeeKind
	Quantity int
	Claim    *payments.Claim
}

// GrantBees выдаёт купленных пчёл одной транзакцией.
// Блокируется строка колонии: две конкурентные покупки в одну колонию
// сериализуются, и вторая видит уже обновлённый счётчик — вместимость
// не может быть превышена, сколько бы запросов ни пришло одновременно.
func (r *Repository) GrantBees(ctx context.Context, p GrantBeesParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var kind game.ColonyKind
	err = tx.QueryRow(ctx,
		`SELECT kind FROM colonies WHERE id = $1 AND player_id = $2 FOR UPDATE`,
		p.ColonyID, p.PlayerID,
	).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrColonyNotFound
		}
		return fmt.Errorf("ошибка блокировки колонии: %w", err)
	}

	if err := r.claims.InsertClaim(ctx, tx, p.Claim); err != nil {
		return err
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bees WHERE colony_id = $1 AND kind = $2`,
		p.ColonyID, string(p.Kind),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("ошибка подсчёта пчёл: %w", err)
	}

	// Повторная проверка правил на данных внутри транзакции
	if err := game.CheckBeePurchase(kind, p.Kind, count, p.Quantity); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bees (colony_id, kind)
		SELECT $1, $2 FROM generate_series(1, $3)
	`, p.ColonyID, string(p.Kind), p.Quantity)
	if err != nil {
		return fmt.Errorf("ошибка добавления пчёл: %w", err)
	}

	return tx.Commit(ctx)
}

// ListSummaries возвращает колонии игрока с подсчётом пчёл по типам.
func (r *Repository) ListSummaries(ctx context.Context, playerID int64) ([]*ColonySummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, kind, created_at
		FROM colonies
		WHERE player_id = $1
		ORDER BY id
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения колоний: %w", err)
	}
	defer rows.Close()

	var summaries []*ColonySummary
	for rows.Next() {
		var s ColonySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Kind, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования колонии: %w", err)
		}
		s.Bees = make(map[string]int)
		summaries = append(summaries, &s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("ошибка чтения колоний: %w", rows.Err())
	}

	for _, s := range summaries {
		beeRows, err := r.db.Query(ctx, `
			SELECT kind, COUNT(*) FROM bees WHERE colony_id = $1 GROUP BY kind
		`, s.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка подсчёта пчёл: %w", err)
		}
		for beeRows.Next() {
			var kind string
			var n int
			if err := beeRows.Scan(&kind, &n); err != nil {
				beeRows.Close()
				return nil, fmt.Errorf("ошибка сканирования пчёл: %w", err)
			}
			s.Bees[kind] = n
			s.TotalBees += n
		}
		beeRows.Close()
		if beeRows.Err() != nil {
			return nil, fmt.Errorf("ошибка чтения пчёл: %w", beeRows.Err())
		}
	}

	return summaries, nil
}
