// Package treasury — service.go содержит бизнес-логику казны.
package treasury

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/game"
	"beesmart.ct.ws/colony-bot/internal/ton"
)

// Store — операции хранилища, нужные сервису казны.
// Реализуется *Repository; в тестах подменяется in-memory заглушкой.
type Store interface {
	Collect(ctx context.Context, playerID int64, now time.Time) (*CollectResult, error)
	Withdraw(ctx context.Context, p WithdrawParams) (*WithdrawRequest, error)
	Balance(ctx context.Context, playerID int64) (int64, error)
	History(ctx context.Context, playerID int64, limit int) ([]*Operation, error)
}

// Service предоставляет операции казны: сбор, баланс, история, вывод.
type Service struct {
	store    Store
	settings *game.Settings
}

// NewService создаёт сервис казны.
func NewService(store Store, settings *game.Settings) *Service {
	return &Service{store: store, settings: settings}
}

// Collect выполняет сбор нектара. Кулдаун и подсчёт награды проверяются
// в транзакции хранилища на заблокированной строке игрока.
func (s *Service) Collect(ctx context.Context, playerID int64) (*CollectResult, error) {
	result, err := s.store.Collect(ctx, playerID, common.Now())
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"player_id": playerID,
		"reward":    result.Reward,
		"balance":   result.Balance,
	}).Info("Нектар собран")
	return result, nil
}

// Withdraw создаёт заявку на вывод litros литров на кошелёк wallet.
// Кошелёк нормализуется до списания: заявка с нечитаемым адресом
// бесполезна админу, который будет платить вручную.
func (s *Service) Withdraw(ctx context.Context, playerID, litros int64, wallet string) (*WithdrawRequest, error) {
	gotas, err := game.WithdrawGotas(s.settings, litros)
	if err != nil {
		return nil, err
	}

	normalized, err := ton.NormalizeAddress(wallet)
	if err != nil {
		return nil, err
	}

	req, err := s.store.Withdraw(ctx, WithdrawParams{
		PlayerID: playerID,
		Gotas:    gotas,
		Litros:   litros,
		Wallet:   normalized,
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"player_id":  playerID,
		"request_id": req.ID,
		"litros":     litros,
		"gotas":      gotas,
	}).Info("Создана заявка на вывод")
	return req, nil
}

// Balance возвращает баланс игрока в готах.
func (s *Service) Balance(ctx context.Context, playerID int64) (int64, error) {
	return s.store.Balance(ctx, playerID)
}

// History возвращает последние операции игрока.
func (s *Service) History(ctx context.Context, playerID int64, limit int) ([]*Operation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.History(ctx, playerID, limit)
}
