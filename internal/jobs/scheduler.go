// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежечасная рассылка напоминаний
// игрокам, у которых истёк кулдаун сбора.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/features/treasury"
	"beesmart.ct.ws/colony-bot/internal/game"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	repo     *treasury.Repository
	settings *game.Settings
	sendFunc func(userID int64, text string)
}

// NewScheduler создаёт планировщик задач. Кулдауны считаются в UTC,
// расписание тоже.
func NewScheduler(repo *treasury.Repository, settings *game.Settings, sendFunc func(userID int64, text string)) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		repo:     repo,
		settings: settings,
		sendFunc: sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Напоминания каждый час
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Проверка напоминаний о сборе")
		s.sendCollectionReminders(ctx)
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (UTC)")
}

// sendCollectionReminders находит игроков с истёкшим кулдауном,
// которым напоминание ещё не уходило, и пишет им в личку.
// Флаг reminder_sent ставится сразу: лучше потерять одно напоминание,
// чем заспамить игрока, у которого закрыта личка.
func (s *Scheduler) sendCollectionReminders(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.settings.CollectionCooldown)
	targets, err := s.repo.PlayersReadyForReminder(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка выборки игроков для напоминания")
		return
	}

	for _, t := range targets {
		if err := s.repo.MarkReminded(ctx, t.PlayerID); err != nil {
			log.WithError(err).WithField("player_id", t.PlayerID).Error("[CRON] Ошибка установки флага")
			continue
		}
		s.sendFunc(t.TelegramID, "🍯 ¡Tu miel está lista! Entra y recolecta tus gotas.")
	}

	if len(targets) > 0 {
		log.WithField("count", len(targets)).Info("[CRON] Напоминания отправлены")
	}
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
