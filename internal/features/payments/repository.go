// Package payments — repository.go выполняет операции с таблицей payment_claims.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"beesmart.ct.ws/colony-bot/internal/common"
)

// uniqueViolation — код PostgreSQL «нарушение уникального ограничения».
const uniqueViolation = "23505"

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertClaim атомарно «забирает» txid в первое и единственное использование.
// Выполняется ВНУТРИ транзакции вызывающего (tx), чтобы погашение и
// выдача товара фиксировались вместе или не фиксировались вовсе.
//
// Никакой отдельной проверки существования перед вставкой: два
// конкурентных запроса с одним txid разрешает уникальный индекс БД,
// и ровно один из них получит common.ErrReplayDetected.
func (r *Repository) InsertClaim(ctx context.Context, tx pgx.Tx, c *Claim) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payment_claims (txid, player_id, amount_nano, category, sender)
		VALUES ($1, $2, $3, $4, $5)
	`, c.TxID, c.PlayerID, c.AmountNano, c.Category, c.Sender)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrReplayDetected
		}
		return fmt.Errorf("ошибка записи платежа: %w", err)
	}
	return nil
}

// GetByTxID возвращает запись о погашенном платеже (для аудита/админки).
func (r *Repository) GetByTxID(ctx context.Context, txid string) (*Claim, error) {
	query := `
		SELECT id, txid, player_id, amount_nano, category, sender, created_at
		FROM payment_claims
		WHERE txid = $1
	`
	var c Claim
	err := r.db.QueryRow(ctx, query, txid).Scan(
		&c.ID, &c.TxID, &c.PlayerID, &c.AmountNano, &c.Category, &c.Sender, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrClaimNotFound
		}
		return nil, fmt.Errorf("ошибка чтения платежа: %w", err)
	}
	return &c, nil
}

// GetByPlayer возвращает последние платежи игрока.
func (r *Repository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*Claim, error) {
	query := `
		SELECT id, txid, player_id, amount_nano, category, sender, created_at
		FROM payment_claims
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения платежей: %w", err)
	}
	defer rows.Close()

	var claims []*Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.ID, &c.TxID, &c.PlayerID, &c.AmountNano, &c.Category, &c.Sender, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования платежа: %w", err)
		}
		claims = append(claims, &c)
	}
	return claims, nil
}
