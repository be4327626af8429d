// Package admin — handlers.go обрабатывает админ-команды.
// Команды работают только в личных сообщениях с ботом.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/payments"
	"beesmart.ct.ws/colony-bot/internal/ton"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleLogin обрабатывает /admin <пароль>.
func (h *Handler) HandleLogin(chatID, userID int64, args string) {
	password := strings.TrimSpace(args)
	if password == "" {
		h.sendMessage(chatID, "Использование: /admin <пароль>")
		return
	}

	err := h.service.Login(userID, password)
	switch {
	case err == nil:
		h.sendMessage(chatID, "✅ Вход выполнен. Команды: /pagos, /pagado <id>, /pago <txid>, /compras <id игрока>, /salir")
	case errors.Is(err, common.ErrTooManyAttempts):
		h.sendMessage(chatID, "⛔ Слишком много попыток, подождите час.")
	default:
		h.sendMessage(chatID, "❌ Неверный пароль.")
	}
}

// HandleLogout обрабатывает /salir.
func (h *Handler) HandleLogout(chatID, userID int64) {
	h.service.Logout(userID)
	h.sendMessage(chatID, "Сессия закрыта.")
}

// HandlePayments обрабатывает /pagos: список pending-заявок на вывод.
func (h *Handler) HandlePayments(ctx context.Context, chatID, userID int64) {
	reqs, err := h.service.PendingWithdrawals(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotAdmin) {
			h.sendMessage(chatID, "Нужен вход: /admin <пароль>")
			return
		}
		log.WithError(err).Error("Ошибка получения заявок на вывод")
		h.sendMessage(chatID, "❌ Внутренняя ошибка.")
		return
	}

	if len(reqs) == 0 {
		h.sendMessage(chatID, "Нет заявок, ожидающих выплаты.")
		return
	}

	var b strings.Builder
	b.WriteString("💸 Заявки на вывод:\n\n")
	for _, req := range reqs {
		b.WriteString(fmt.Sprintf(
			"#%d — игрок %d, %d л (%s гот)\n%s\nот %s\n\n",
			req.ID, req.PlayerID, req.Litros, common.FormatNumber(req.Gotas),
			req.Wallet, common.FormatDateTime(req.CreatedAt),
		))
	}
	b.WriteString("Отметить выплату: /pagado <id>")
	h.sendMessage(chatID, b.String())
}

// HandlePaid обрабатывает /pagado <id>: отметка выплаты.
func (h *Handler) HandlePaid(ctx context.Context, chatID, userID int64, args string) {
	requestID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.sendMessage(chatID, "Использование: /pagado <id заявки>")
		return
	}

	err = h.service.MarkPaid(ctx, userID, requestID)
	switch {
	case err == nil:
		h.sendMessage(chatID, fmt.Sprintf("✅ Заявка #%d помечена выплаченной.", requestID))
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "Нужен вход: /admin <пароль>")
	case errors.Is(err, common.ErrWithdrawalNotFound):
		h.sendMessage(chatID, "Заявка не найдена или уже выплачена.")
	default:
		log.WithError(err).WithField("request_id", requestID).Error("Ошибка отметки выплаты")
		h.sendMessage(chatID, "❌ Внутренняя ошибка.")
	}
}

// HandleClaimLookup обрабатывает /pago <txid>: поиск погашенного платежа.
func (h *Handler) HandleClaimLookup(ctx context.Context, chatID, userID int64, args string) {
	txid := strings.TrimSpace(args)
	if txid == "" {
		h.sendMessage(chatID, "Использование: /pago <txid>")
		return
	}

	claim, err := h.service.ClaimByTxID(ctx, userID, txid)
	switch {
	case err == nil:
		h.sendMessage(chatID, formatClaim(claim))
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "Нужен вход: /admin <пароль>")
	case errors.Is(err, common.ErrClaimNotFound):
		h.sendMessage(chatID, "Платёж с таким txid не погашался.")
	default:
		log.WithError(err).Error("Ошибка поиска платежа")
		h.sendMessage(chatID, "❌ Внутренняя ошибка.")
	}
}

// HandlePlayerClaims обрабатывает /compras <id игрока>: последние платежи.
func (h *Handler) HandlePlayerClaims(ctx context.Context, chatID, userID int64, args string) {
	playerID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.sendMessage(chatID, "Использование: /compras <id игрока>")
		return
	}

	claims, err := h.service.PlayerClaims(ctx, userID, playerID)
	if err != nil {
		if errors.Is(err, common.ErrNotAdmin) {
			h.sendMessage(chatID, "Нужен вход: /admin <пароль>")
			return
		}
		log.WithError(err).WithField("player_id", playerID).Error("Ошибка получения платежей игрока")
		h.sendMessage(chatID, "❌ Внутренняя ошибка.")
		return
	}

	if len(claims) == 0 {
		h.sendMessage(chatID, "У игрока нет погашенных платежей.")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧾 Платежи игрока %d:\n\n", playerID))
	for _, c := range claims {
		b.WriteString(formatClaim(c))
		b.WriteString("\n\n")
	}
	h.sendMessage(chatID, b.String())
}

// formatClaim собирает строку с деталями погашенного платежа.
func formatClaim(c *payments.Claim) string {
	return fmt.Sprintf(
		"txid: %s\nигрок: %d\nсумма: %s TON\nкатегория: %s\nпогашен: %s",
		c.TxID, c.PlayerID, ton.FormatNano(c.AmountNano), c.Category,
		common.FormatDateTime(c.CreatedAt),
	)
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
