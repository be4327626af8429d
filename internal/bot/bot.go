// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики и запускает polling.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/bot/middleware"
	"beesmart.ct.ws/colony-bot/internal/config"
	"beesmart.ct.ws/colony-bot/internal/features/admin"
	"beesmart.ct.ws/colony-bot/internal/features/apiary"
	"beesmart.ct.ws/colony-bot/internal/features/players"
	"beesmart.ct.ws/colony-bot/internal/features/treasury"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter

	playerHandler   *players.Handler
	apiaryHandler   *apiary.Handler
	treasuryHandler *treasury.Handler
	adminHandler    *admin.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playerHandler *players.Handler,
	apiaryHandler *apiary.Handler,
	treasuryHandler *treasury.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerHandler:   playerHandler,
		apiaryHandler:   apiaryHandler,
		treasuryHandler: treasuryHandler,
		adminHandler:    adminHandler,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message
	if message.From == nil || message.Chat == nil {
		return
	}

	middleware.LogMessage(message)

	// Игра живёт в личке: групповые чаты игнорируем
	if !message.Chat.IsPrivate() {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	b.routeCommand(ctx, message, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, message *tgbotapi.Message, cmd string, args []string) {
	chatID := message.Chat.ID
	userID := message.From.ID

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": len(args),
	}).Debug("routing command")

	switch cmd {
	case "start":
		b.playerHandler.HandleStart(ctx, chatID, userID, message.From.UserName, message.From.FirstName)

	case "colmenas":
		b.apiaryHandler.HandleColonies(ctx, chatID, userID)

	case "recolectar":
		b.treasuryHandler.HandleCollect(ctx, chatID, userID)

	case "saldo":
		b.treasuryHandler.HandleBalance(ctx, chatID, userID)

	case "historial":
		b.treasuryHandler.HandleHistory(ctx, chatID, userID)

	case "ayuda", "help":
		b.sendMessage(chatID, "Comandos: /colmenas, /recolectar, /saldo, /historial. Entra al juego con /start.")

	case "admin":
		b.adminHandler.HandleLogin(chatID, userID, strings.Join(args, " "))

	case "salir":
		b.adminHandler.HandleLogout(chatID, userID)

	case "pagos":
		b.adminHandler.HandlePayments(ctx, chatID, userID)

	case "pagado":
		b.adminHandler.HandlePaid(ctx, chatID, userID, strings.Join(args, " "))

	case "pago":
		b.adminHandler.HandleClaimLookup(ctx, chatID, userID, strings.Join(args, " "))

	case "compras":
		b.adminHandler.HandlePlayerClaims(ctx, chatID, userID, strings.Join(args, " "))
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для напоминаний).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}

// CommandParser парсит команды с префиксом /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname ("/start@ColmenaBot") отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
