// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"beesmart.ct.ws/colony-bot/internal/game"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// URL веб-приложения игры (кнопка ENTRAR в /start)
	WebAppURL string `envconfig:"WEBAPP_URL" default:"https://beesmart.ct.ws/public/"`

	// --- TON ---
	TonAPIBaseURL string `envconfig:"TON_API_URL" default:"https://tonapi.io"`
	// Адрес кошелька игры, на который принимаются платежи.
	// Задавать в raw-форме (как отдаёт tonapi, "0:<64 hex>"): base64-форма
	// нормализуется в другую каноническую строку и не совпадёт с оракулом.
	TonWalletAddress string `envconfig:"TON_WALLET_PUBLIC_ADDRESS" required:"true"`
	// Таймаут одного запроса к оракулу. Таймаут = Unavailable, не успех.
	TonRequestTimeout time.Duration `envconfig:"TON_REQUEST_TIMEOUT" default:"10s"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"colony_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Web API ---
	APIListenAddr string `envconfig:"API_LISTEN_ADDR" default:":3000"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Игровая экономика ---
	GameMaxColonies       int           `envconfig:"GAME_MAX_COLONIES" default:"6"`
	GameCollectCooldown   time.Duration `envconfig:"GAME_COLLECT_COOLDOWN" default:"24h"`
	GameGotasPerLitro     int64         `envconfig:"GAME_GOTAS_PER_LITRO" default:"100"`
	GameMinWithdrawLitros int64         `envconfig:"GAME_MIN_WITHDRAW_LITROS" default:"1"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// GameSettings собирает настройки экономики для Rule Engine.
func (c *Config) GameSettings() *game.Settings {
	return &game.Settings{
		MaxColonies:        c.GameMaxColonies,
		CollectionCooldown: c.GameCollectCooldown,
		GotasPerLitro:      c.GameGotasPerLitro,
		MinWithdrawLitros:  c.GameMinWithdrawLitros,
	}
}

func (c *Config) Validate() error {
	if c.TonWalletAddress == "" {
		return fmt.Errorf("TON_WALLET_PUBLIC_ADDRESS не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.GameMaxColonies <= 0 {
		return fmt.Errorf("GAME_MAX_COLONIES должен быть > 0")
	}
	if c.GameCollectCooldown <= 0 {
		return fmt.Errorf("GAME_COLLECT_COOLDOWN должен быть > 0")
	}
	if c.GameGotasPerLitro <= 0 || c.GameMinWithdrawLitros <= 0 {
		return fmt.Errorf("некорректные параметры вывода")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
