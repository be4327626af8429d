// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, клиент TON-оракула, репозитории,
// сервисы, обработчики, и собирает бота, API-сервер и планировщик.
package app

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/api"
	"beesmart.ct.ws/colony-bot/internal/bot"
	"beesmart.ct.ws/colony-bot/internal/config"
	"beesmart.ct.ws/colony-bot/internal/db/postgres"
	"beesmart.ct.ws/colony-bot/internal/features/admin"
	"beesmart.ct.ws/colony-bot/internal/features/apiary"
	"beesmart.ct.ws/colony-bot/internal/features/payments"
	"beesmart.ct.ws/colony-bot/internal/features/players"
	"beesmart.ct.ws/colony-bot/internal/features/treasury"
	"beesmart.ct.ws/colony-bot/internal/jobs"
	"beesmart.ct.ws/colony-bot/internal/ton"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	APIServer *http.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. TON: оракул и верификатор платежей ===
	oracle := ton.NewClient(cfg.TonAPIBaseURL, cfg.TonRequestTimeout)
	verifier, err := ton.NewVerifier(oracle, cfg.TonWalletAddress)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания верификатора: %w", err)
	}
	log.WithField("recipient", verifier.Recipient()).Info("Верификатор платежей готов")

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	settings := cfg.GameSettings()

	// === 4. Репозитории ===
	playerRepo := players.NewRepository(pool)
	claimsRepo := payments.NewRepository(pool)
	apiaryRepo := apiary.NewRepository(pool, claimsRepo, settings)
	treasuryRepo := treasury.NewRepository(pool, settings)

	// === 5. Сервисы ===
	playerService := players.NewService(playerRepo)
	apiaryService := apiary.NewService(apiaryRepo, verifier, settings)
	treasuryService := treasury.NewService(treasuryRepo, settings)
	adminService := admin.NewService(treasuryRepo, claimsRepo, cfg.AdminPasswordHash)

	// === 6. Обработчики ===
	playerHandler := players.NewHandler(playerService, botAPI, cfg.WebAppURL)
	apiaryHandler := apiary.NewHandler(apiaryService, playerService, botAPI)
	treasuryHandler := treasury.NewHandler(treasuryService, playerService, botAPI)
	adminHandler := admin.NewHandler(adminService, botAPI)

	// === 7. Бот ===
	b := bot.New(botAPI, cfg, playerHandler, apiaryHandler, treasuryHandler, adminHandler)

	// === 8. API веб-приложения ===
	apiServer := &http.Server{
		Addr: cfg.APIListenAddr,
		Handler: api.NewServer(
			playerService, apiaryService, treasuryService,
			settings, verifier.Recipient(),
		).Routes(),
	}

	// === 9. Планировщик задач ===
	scheduler := jobs.NewScheduler(treasuryRepo, settings, b.SendMessageToUser)

	return &App{
		Bot:       b,
		APIServer: apiServer,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Players},
		{2, migration002Apiary},
		{3, migration003PaymentClaims},
		{4, migration004Treasury},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255),
    gotas BIGINT NOT NULL DEFAULT 0,
    tutorial BOOLEAN NOT NULL DEFAULT FALSE,
    last_collected TIMESTAMP,
    reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_telegram_id ON players(telegram_id);
CREATE INDEX IF NOT EXISTS idx_players_reminder ON players(reminder_sent, last_collected);
`

var migration002Apiary = `
CREATE TABLE IF NOT EXISTS colonies (
    id BIGSERIAL PRIMARY KEY,
    player_id BIGINT NOT NULL REFERENCES players(id),
    name VARCHAR(255) NOT NULL,
    kind VARCHAR(32) NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_colonies_player_id ON colonies(player_id);
CREATE TABLE IF NOT EXISTS bees (
    id BIGSERIAL PRIMARY KEY,
    colony_id BIGINT NOT NULL REFERENCES colonies(id),
    kind VARCHAR(32) NOT NULL,
    born_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_bees_colony_kind ON bees(colony_id, kind);
`

var migration003PaymentClaims = `
CREATE TABLE IF NOT EXISTS payment_claims (
    id BIGSERIAL PRIMARY KEY,
    txid VARCHAR(255) UNIQUE NOT NULL,
    player_id BIGINT NOT NULL REFERENCES players(id),
    amount_nano BIGINT NOT NULL,
    category VARCHAR(32) NOT NULL,
    sender VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payment_claims_player ON payment_claims(player_id, created_at DESC);
`

var migration004Treasury = `
CREATE TABLE IF NOT EXISTS operations (
    id BIGSERIAL PRIMARY KEY,
    player_id BIGINT NOT NULL REFERENCES players(id),
    amount BIGINT NOT NULL,
    op_type VARCHAR(32) NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_operations_player ON operations(player_id, created_at DESC);
CREATE TABLE IF NOT EXISTS withdraw_requests (
    id BIGSERIAL PRIMARY KEY,
    player_id BIGINT NOT NULL REFERENCES players(id),
    gotas BIGINT NOT NULL,
    litros BIGINT NOT NULL,
    wallet VARCHAR(255) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT NOW(),
    processed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_withdraw_requests_status ON withdraw_requests(status, created_at);
`
