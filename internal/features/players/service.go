// Package players — service.go содержит бизнес-логику управления игроками.
package players

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Service управляет игроками.
type Service struct {
	repo *Repository // Репозиторий для работы с таблицей players
}

// NewService создаёт новый сервис игроков.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Register регистрирует игрока по первому /start.
// Новый игрок получает стартовый подарок (колония free + пчела free);
// повторный вызов только обновляет имя. Возвращает игрока и флаг
// «создан впервые».
func (s *Service) Register(ctx context.Context, telegramID int64, username, firstName string) (*Player, bool, error) {
	p, created, err := s.repo.Register(ctx, telegramID, username, firstName)
	if err != nil {
		return nil, false, err
	}
	if created {
		log.WithFields(log.Fields{
			"telegram_id": telegramID,
			"username":    username,
		}).Info("Новый игрок зарегистрирован, стартовый подарок выдан")
	}
	return p, created, nil
}

// GetByTelegramID возвращает игрока по Telegram ID.
func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*Player, error) {
	return s.repo.GetByTelegramID(ctx, telegramID)
}

// GetByID возвращает игрока по внутреннему ID.
func (s *Service) GetByID(ctx context.Context, playerID int64) (*Player, error) {
	return s.repo.GetByID(ctx, playerID)
}

// CompleteTutorial помечает туториал пройденным.
func (s *Service) CompleteTutorial(ctx context.Context, playerID int64) error {
	return s.repo.CompleteTutorial(ctx, playerID)
}
