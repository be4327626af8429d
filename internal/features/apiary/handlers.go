// Package apiary — handlers.go обрабатывает команду /colmenas:
// сводка по колониям игрока прямо в чате.
package apiary

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/features/players"
)

// Handler обрабатывает команды пасеки.
type Handler struct {
	service *Service
	players *players.Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд пасеки.
func NewHandler(service *Service, playersSvc *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		players: playersSvc,
		bot:     bot,
	}
}

// HandleColonies обрабатывает /colmenas: список колоний с пчёлами.
func (h *Handler) HandleColonies(ctx context.Context, chatID, userID int64) {
	player, err := h.players.GetByTelegramID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "Usa /start primero para registrarte.")
		return
	}

	summaries, err := h.service.ListSummaries(ctx, player.ID)
	if err != nil {
		log.WithError(err).WithField("player_id", player.ID).Error("Ошибка получения колоний")
		h.sendMessage(chatID, "❌ Error interno, inténtalo de nuevo más tarde.")
		return
	}

	if len(summaries) == 0 {
		h.sendMessage(chatID, "No tienes colmenas todavía.")
		return
	}

	var b strings.Builder
	b.WriteString("🐝 Tus colmenas:\n\n")
	for _, s := range summaries {
		b.WriteString(fmt.Sprintf("• %s (%s)", s.Name, s.Kind))
		if s.TotalBees == 0 {
			b.WriteString(" — sin abejas\n")
			continue
		}
		var parts []string
		for kind, n := range s.Bees {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
		b.WriteString(" — " + strings.Join(parts, ", ") + "\n")
	}

	h.sendMessage(chatID, b.String())
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
