// Package api реализует JSON API для веб-приложения (Telegram WebApp).
// server.go собирает маршруты и промежуточные обработчики.
//
// API намеренно на стандартном net/http: семь маршрутов без параметров
// в пути не оправдывают роутер-фреймворк.
package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/features/apiary"
	"beesmart.ct.ws/colony-bot/internal/features/players"
	"beesmart.ct.ws/colony-bot/internal/features/treasury"
	"beesmart.ct.ws/colony-bot/internal/game"
)

// Server обслуживает HTTP-запросы веб-приложения.
type Server struct {
	players  *players.Service
	apiary   *apiary.Service
	treasury *treasury.Service
	settings *game.Settings
	wallet   string // Кошелёк-получатель платежей (для фронтенда)
}

// NewServer создаёт API-сервер.
func NewServer(
	playersSvc *players.Service,
	apiarySvc *apiary.Service,
	treasurySvc *treasury.Service,
	settings *game.Settings,
	wallet string,
) *Server {
	return &Server{
		players:  playersSvc,
		apiary:   apiarySvc,
		treasury: treasurySvc,
		settings: settings,
		wallet:   wallet,
	}
}

// Routes возвращает маршрутизатор со всеми эндпоинтами.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/user_status", s.handleUserStatus)
	mux.HandleFunc("GET /api/game_config", s.handleGameConfig)
	mux.HandleFunc("POST /api/collect_nectar", s.handleCollectNectar)
	mux.HandleFunc("POST /api/buy_colony", s.handleBuyColony)
	mux.HandleFunc("POST /api/add_bee", s.handleAddBee)
	mux.HandleFunc("POST /api/withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /api/update_tutorial", s.handleUpdateTutorial)

	return s.withMiddleware(mux)
}

// withMiddleware добавляет CORS, восстановление после паники и лог запросов.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithField("panic", rec).Error("ПАНИКА в HTTP-обработчике")
				writeError(w, http.StatusInternalServerError, "Error interno")
			}
		}()

		// Фронтенд открывается внутри Telegram WebApp с другого origin
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("HTTP запрос")

		next.ServeHTTP(w, r)
	})
}
