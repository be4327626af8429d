// Package apiary — service.go содержит оркестрацию покупки (Ledger Writer).
//
// Один запрос проходит состояния:
//
//	RECEIVED → RULE_CHECKED → VERIFIED → CLAIMED → COMMITTED
//
// с терминальным REJECTED из любого из первых трёх. Снаружи видны
// только целые переходы: до транзакции выдачи запрос не оставляет
// никаких следов, поэтому отменённый или упавший запрос можно
// повторить с тем же txid.
package apiary

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/payments"
	"beesmart.ct.ws/colony-bot/internal/game"
)

// Store — операции хранилища, нужные оркестрации покупок.
// Реализуется *Repository; в тестах подменяется in-memory заглушкой.
type Store interface {
	GetColony(ctx context.Context, colonyID, playerID int64) (*Colony, error)
	CountColonies(ctx context.Context, playerID int64) (int, error)
	CountBees(ctx context.Context, colonyID int64, kind game.BeeKind) (int, error)
	GrantColony(ctx context.Context, p GrantColonyParams) error
	GrantBees(ctx context.Context, p GrantBeesParams) error
	ListSummaries(ctx context.Context, playerID int64) ([]*ColonySummary, error)
}

// PaymentVerifier решает Matched (nil) / NotMatched / Unavailable.
type PaymentVerifier interface {
	Verify(ctx context.Context, txid string, expectedNano int64) error
}

// Service оркестрирует покупки колоний и пчёл.
type Service struct {
	store    Store
	verifier PaymentVerifier
	settings *game.Settings
}

// NewService создаёт сервис пасеки.
func NewService(store Store, verifier PaymentVerifier, settings *game.Settings) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		settings: settings,
	}
}

// BuyColony проводит покупку колонии за TON.
//
// Порядок строго фиксирован:
//  1. Дешёвая проверка правил по текущему состоянию — отказ до
//     какого-либо сетевого вызова.
//  2. Проверка платежа у оракула (вне каких-либо блокировок).
//  3. Транзакция выдачи: захват txid + повторная проверка + вставка.
func (s *Service) BuyColony(ctx context.Context, playerID int64, kind game.ColonyKind, txid string) error {
	txid = strings.TrimSpace(txid)
	if txid == "" {
		return common.ErrInvalidRequest
	}

	logger := log.WithFields(log.Fields{
		"player_id": playerID,
		"kind":      kind,
		"tx":        txid,
	})

	cost, ok := game.ColonyCost(kind)
	if !ok {
		return common.ErrUnknownColonyKind
	}

	// Шаг 1: предварительная проверка правил (без сети и блокировок)
	count, err := s.store.CountColonies(ctx, playerID)
	if err != nil {
		return err
	}
	if err := game.CheckColonyPurchase(s.settings, kind, count); err != nil {
		logger.WithError(err).Info("Покупка колонии отклонена правилами")
		return err
	}
	logger.WithField("stage", "rule_checked").Debug("Правила пройдены")

	// Шаг 2: проверка платежа. Unavailable — это отказ, не успех.
	if err := s.verifier.Verify(ctx, txid, cost); err != nil {
		logger.WithError(err).Info("Платёж за колонию не подтверждён")
		return err
	}
	logger.WithField("stage", "verified").Debug("Платёж подтверждён")

	// Шаг 3: атомарная выдача
	err = s.store.GrantColony(ctx, GrantColonyParams{
		PlayerID: playerID,
		Kind:     kind,
		Name:     fmt.Sprintf("Colmena %s", kind),
		Claim: &payments.Claim{
			TxID:       txid,
			PlayerID:   playerID,
			AmountNano: cost,
			Category:   payments.CategoryColony,
		},
	})
	if err != nil {
		logger.WithError(err).Warn("Выдача колонии не состоялась")
		return err
	}

	logger.WithFields(log.Fields{
		"stage":     "committed",
		"cost_nano": cost,
	}).Info("Колония куплена")
	return nil
}

// BuyBees проводит покупку qty пчёл типа kind в колонию colonyID.
// Тот же трёхшаговый порядок, что и BuyColony.
func (s *Service) BuyBees(ctx context.Context, playerID, colonyID int64, kind game.BeeKind, qty int, txid string) error {
	txid = strings.TrimSpace(txid)
	if txid == "" {
		return common.ErrInvalidRequest
	}
	if qty <= 0 {
		return common.ErrInvalidAmount
	}

	logger := log.WithFields(log.Fields{
		"player_id": playerID,
		"colony_id": colonyID,
		"kind":      kind,
		"qty":       qty,
		"tx":        txid,
	})

	cost, ok := game.BeeCost(kind, qty)
	if !ok {
		return common.ErrUnknownBeeKind
	}

	// Шаг 1: предварительная проверка правил
	colony, err := s.store.GetColony(ctx, colonyID, playerID)
	if err != nil {
		return err
	}
	current, err := s.store.CountBees(ctx, colonyID, kind)
	if err != nil {
		return err
	}
	if err := game.CheckBeePurchase(colony.Kind, kind, current, qty); err != nil {
		logger.WithError(err).Info("Покупка пчёл отклонена правилами")
		return err
	}
	logger.WithField("stage", "rule_checked").Debug("Правила пройдены")

	// Шаг 2: проверка платежа
	if err := s.verifier.Verify(ctx, txid, cost); err != nil {
		logger.WithError(err).Info("Платёж за пчёл не подтверждён")
		return err
	}
	logger.WithField("stage", "verified").Debug("Платёж подтверждён")

	// Шаг 3: атомарная выдача
	err = s.store.GrantBees(ctx, GrantBeesParams{
		PlayerID: playerID,
		ColonyID: colonyID,
		Kind:     kind,
		Quantity: qty,
		Claim: &payments.Claim{
			TxID:       txid,
			PlayerID:   playerID,
			AmountNano: cost,
			Category:   payments.CategoryBee,
		},
	})
	if err != nil {
		logger.WithError(err).Warn("Выдача пчёл не состоялась")
		return err
	}

	logger.WithFields(log.Fields{
		"stage":     "committed",
		"cost_nano": cost,
	}).Info("Пчёлы куплены")
	return nil
}

// ListSummaries возвращает колонии игрока с подсчётом пчёл.
func (s *Service) ListSummaries(ctx context.Context, playerID int64) ([]*ColonySummary, error) {
	return s.store.ListSummaries(ctx, playerID)
}
