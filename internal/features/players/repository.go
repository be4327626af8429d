// Package players — repository.go отвечает за все операции с таблицей players.
package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/game"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Register создаёт игрока вместе со стартовым подарком:
// одна колония free с одной пчелой free. Всё в одной транзакции —
// не бывает игрока без стартовой колонии.
// Идемпотентно: повторный /start ничего не дублирует.
func (r *Repository) Register(ctx context.Context, telegramID int64, username, firstName string) (*Player, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// ON CONFLICT DO NOTHING + RETURNING: id вернётся только при вставке
	var playerID int64
	inserted := true
	err = tx.QueryRow(ctx, `
		INSERT INTO players (telegram_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING id
	`, telegramID, username, firstName).Scan(&playerID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("ошибка регистрации игрока: %w", err)
		}
		// Игрок уже существует — обновляем имя и выходим без подарка
		inserted = false
		_, err = tx.Exec(ctx, `
			UPDATE players SET username = $2, first_name = $3, updated_at = NOW()
			WHERE telegram_id = $1
		`, telegramID, username, firstName)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка обновления игрока: %w", err)
		}
	}

	if inserted {
		// Стартовый подарок: колония free + пчела free
		var colonyID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO colonies (player_id, name, kind)
			VALUES ($1, 'Colmena free', $2)
			RETURNING id
		`, playerID, string(game.ColonyFree)).Scan(&colonyID)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка создания стартовой колонии: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO bees (colony_id, kind) VALUES ($1, $2)
		`, colonyID, string(game.BeeFree))
		if err != nil {
			return nil, false, fmt.Errorf("ошибка создания стартовой пчелы: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("ошибка фиксации регистрации: %w", err)
	}

	p, err := r.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	return p, inserted, nil
}

// GetByTelegramID возвращает игрока по Telegram ID.
// Если игрок не найден — common.ErrPlayerNotFound.
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID int64) (*Player, error) {
	query := `
		SELECT id, telegram_id, username, first_name, gotas, tutorial,
		       last_collected, reminder_sent, created_at, updated_at
		FROM players
		WHERE telegram_id = $1
	`
	var p Player
	err := r.db.QueryRow(ctx, query, telegramID).Scan(
		&p.ID, &p.TelegramID, &p.Username, &p.FirstName, &p.Gotas, &p.Tutorial,
		&p.LastCollected, &p.ReminderSent, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка чтения игрока (telegram_id=%d): %w", telegramID, err)
	}
	return &p, nil
}

// GetByID возвращает игрока по внутреннему ID.
func (r *Repository) GetByID(ctx context.Context, playerID int64) (*Player, error) {
	query := `
		SELECT id, telegram_id, username, first_name, gotas, tutorial,
		       last_collected, reminder_sent, created_at, updated_at
		FROM players
		WHERE id = $1
	`
	var p Player
	err := r.db.QueryRow(ctx, query, playerID).Scan(
		&p.ID, &p.TelegramID, &p.Username, &p.FirstName, &p.Gotas, &p.Tutorial,
		&p.LastCollected, &p.ReminderSent, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка чтения игрока (id=%d): %w", playerID, err)
	}
	return &p, nil
}

// CompleteTutorial помечает туториал пройденным.
func (r *Repository) CompleteTutorial(ctx context.Context, playerID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE players SET tutorial = TRUE, updated_at = NOW() WHERE id = $1
	`, playerID)
	if err != nil {
		return fmt.Errorf("ошибка обновления туториала: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	return nil
}
