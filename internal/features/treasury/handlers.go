// Package treasury — handlers.go обрабатывает команды /recolectar, /saldo
// и /historial.
package treasury

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/players"
)

// Handler обрабатывает команды казны.
type Handler struct {
	service *Service
	players *players.Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд казны.
func NewHandler(service *Service, playersSvc *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		players: playersSvc,
		bot:     bot,
	}
}

// HandleCollect обрабатывает /recolectar: сбор нектара.
func (h *Handler) HandleCollect(ctx context.Context, chatID, userID int64) {
	player, err := h.players.GetByTelegramID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "Usa /start primero para registrarte.")
		return
	}

	result, err := h.service.Collect(ctx, player.ID)
	if err != nil {
		if errors.Is(err, common.ErrCooldownActive) {
			h.sendMessage(chatID, "⏳ Tus abejas siguen trabajando. Vuelve más tarde.")
			return
		}
		log.WithError(err).WithField("player_id", player.ID).Error("Ошибка сбора нектара")
		h.sendMessage(chatID, "❌ Error interno, inténtalo de nuevo más tarde.")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🍯 Has recolectado %s. Saldo: %s.",
		common.FormatGotas(result.Reward),
		common.FormatGotas(result.Balance),
	))
}

// HandleBalance обрабатывает /saldo: текущий баланс.
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	player, err := h.players.GetByTelegramID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "Usa /start primero para registrarte.")
		return
	}

	balance, err := h.service.Balance(ctx, player.ID)
	if err != nil {
		log.WithError(err).WithField("player_id", player.ID).Error("Ошибка чтения баланса")
		h.sendMessage(chatID, "❌ Error interno, inténtalo de nuevo más tarde.")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("💰 Tu saldo: %s.", common.FormatGotas(balance)))
}

// HandleHistory обрабатывает /historial: последние операции игрока.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	player, err := h.players.GetByTelegramID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "Usa /start primero para registrarte.")
		return
	}

	ops, err := h.service.History(ctx, player.ID, 0)
	if err != nil {
		log.WithError(err).WithField("player_id", player.ID).Error("Ошибка чтения истории операций")
		h.sendMessage(chatID, "❌ Error interno, inténtalo de nuevo más tarde.")
		return
	}

	h.sendMessage(chatID, formatOperations(ops))
}

// formatOperations собирает текст истории операций.
// Вынесено из обработчика, чтобы тестировать без Bot API.
func formatOperations(ops []*Operation) string {
	if len(ops) == 0 {
		return "📜 Aún no tienes operaciones."
	}

	var sb strings.Builder
	sb.WriteString("📜 Tus últimas operaciones:\n")
	for _, op := range ops {
		sign := "+"
		if op.Amount < 0 {
			sign = ""
		}
		fmt.Fprintf(&sb, "%s — %s%s\n",
			common.FormatDateTime(op.CreatedAt), sign, common.FormatGotas(op.Amount))
	}
	return sb.String()
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
