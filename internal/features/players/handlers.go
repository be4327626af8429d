// Package players — handlers.go обрабатывает команду /start:
// регистрация игрока и кнопка входа в веб-приложение.
package players

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает команды игроков.
type Handler struct {
	service   *Service
	bot       *tgbotapi.BotAPI
	webAppURL string
}

// NewHandler создаёт обработчик команд игроков.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, webAppURL string) *Handler {
	return &Handler{
		service:   service,
		bot:       bot,
		webAppURL: webAppURL,
	}
}

// HandleStart обрабатывает /start: регистрирует игрока (идемпотентно)
// и отправляет приветствие с кнопкой входа в веб-приложение.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64, username, firstName string) {
	_, created, err := h.service.Register(ctx, userID, username, firstName)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации игрока")
		h.sendMessage(chatID, "❌ Error interno, inténtalo de nuevo más tarde.")
		return
	}

	text := "Bienvenido a esta dulce aventura, recolecta miel cada 24 horas, junta muchos litros y hazte rico."
	if created {
		text += " Has recibido como regalo 1 Colmena + 1 Abeja (free)."
	}
	text += " Entra ahora y recolecta gotas de miel:"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = entryKeyboard(h.webAppURL, userID)

	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки приветствия")
	}
}

// entryKeyboard строит кнопку входа в игру.
// Библиотека бота (v5.5.1) не знает web_app-кнопок из Bot API 6.0,
// поэтому ENTRAR — обычная URL-кнопка: игра откроется в браузере,
// а не во встроенном WebApp.
func entryKeyboard(webAppURL string, userID int64) tgbotapi.InlineKeyboardMarkup {
	url := fmt.Sprintf("%s?user_id=%d", webAppURL, userID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("ENTRAR", url),
		),
	)
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
