// Package api — handlers.go содержит обработчики эндпоинтов веб-приложения.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/apiary"
	"beesmart.ct.ws/colony-bot/internal/features/players"
	"beesmart.ct.ws/colony-bot/internal/game"
	"beesmart.ct.ws/colony-bot/internal/ton"
)

// errorResponse — тело ответа при отказе.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Ошибка записи JSON-ответа")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// writeDomainError переводит доменные ошибки в HTTP-статус и
// испанское сообщение для фронтенда.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "Jugador no encontrado")
	case errors.Is(err, common.ErrColonyNotFound):
		writeError(w, http.StatusNotFound, "Colmena no encontrada")
	case errors.Is(err, common.ErrCooldownActive):
		writeError(w, http.StatusConflict, "Tus abejas siguen trabajando, vuelve más tarde")
	case errors.Is(err, common.ErrReplayDetected):
		writeError(w, http.StatusConflict, "Esta transacción ya fue utilizada")
	case errors.Is(err, common.ErrPaymentNotMatched):
		writeError(w, http.StatusPaymentRequired, "Pago no encontrado o importe incorrecto")
	case errors.Is(err, common.ErrPaymentUnavailable):
		writeError(w, http.StatusServiceUnavailable, "No se pudo verificar el pago, inténtalo de nuevo")
	case errors.Is(err, common.ErrColonyLimit):
		writeError(w, http.StatusConflict, "Has alcanzado el máximo de colmenas")
	case errors.Is(err, common.ErrColonyFull):
		writeError(w, http.StatusConflict, "La colmena está llena")
	case errors.Is(err, common.ErrStarterColony):
		writeError(w, http.StatusConflict, "La colmena gratis no admite abejas compradas")
	case errors.Is(err, common.ErrBeeNotAllowed):
		writeError(w, http.StatusConflict, "Ese tipo de abeja no vive en esta colmena")
	case errors.Is(err, common.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "Saldo insuficiente")
	case errors.Is(err, common.ErrBelowMinWithdraw):
		writeError(w, http.StatusBadRequest, "No alcanzas el retiro mínimo")
	case errors.Is(err, common.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, "Dirección TON inválida")
	case errors.Is(err, common.ErrUnknownColonyKind),
		errors.Is(err, common.ErrUnknownBeeKind),
		errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, common.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
	default:
		log.WithError(err).Error("Необработанная ошибка API")
		writeError(w, http.StatusInternalServerError, "Error interno")
	}
}

// playerByRequest достаёт игрока по user_id (Telegram ID) из запроса.
func (s *Server) playerByRequest(ctx context.Context, w http.ResponseWriter, userID int64) (*players.Player, bool) {
	player, err := s.players.GetByTelegramID(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return player, true
}

// --- GET /api/user_status ---

type userStatusResponse struct {
	Success        bool                    `json:"success"`
	ID             int64                   `json:"id"`
	Nombre         string                  `json:"nombre"`
	Gotas          int64                   `json:"gotas"`
	Tutorial       bool                    `json:"tutorial"`
	LastCollected  *time.Time              `json:"ultima_recoleccion"`
	CanCollect     bool                    `json:"puede_recolectar"`
	NextCollection *time.Time              `json:"proxima_recoleccion"`
	Colonies       []*apiary.ColonySummary `json:"colmenas"`
}

func (s *Server) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	player, ok := s.playerByRequest(r.Context(), w, userID)
	if !ok {
		return
	}

	summaries, err := s.apiary.ListSummaries(r.Context(), player.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := userStatusResponse{
		Success:       true,
		ID:            player.TelegramID,
		Nombre:        player.DisplayName(),
		Gotas:         player.Gotas,
		Tutorial:      player.Tutorial,
		LastCollected: player.LastCollected,
		CanCollect:    game.CheckCollection(s.settings, player.LastCollected, common.Now()) == nil,
		Colonies:      summaries,
	}
	if player.LastCollected != nil {
		next := player.LastCollected.Add(s.settings.CollectionCooldown)
		resp.NextCollection = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- GET /api/game_config ---

type gameConfigResponse struct {
	Success       bool              `json:"success"`
	Wallet        string            `json:"wallet"`
	MaxColonies   int               `json:"max_colmenas"`
	GotasPerLitro int64             `json:"gotas_por_litro"`
	MinWithdraw   int64             `json:"retiro_minimo_litros"`
	CooldownHours float64           `json:"recoleccion_horas"`
	ColonyPrices  map[string]string `json:"precios_colmenas"` // TON, строкой
	BeePrices     map[string]string `json:"precios_abejas"`
	DailyRewards  map[string]int64  `json:"recompensa_diaria"`
	Capacities    map[string]map[string]int `json:"capacidades"`
}

func (s *Server) handleGameConfig(w http.ResponseWriter, r *http.Request) {
	resp := gameConfigResponse{
		Success:       true,
		Wallet:        s.wallet,
		MaxColonies:   s.settings.MaxColonies,
		GotasPerLitro: s.settings.GotasPerLitro,
		MinWithdraw:   s.settings.MinWithdrawLitros,
		CooldownHours: s.settings.CollectionCooldown.Hours(),
		ColonyPrices:  make(map[string]string),
		BeePrices:     make(map[string]string),
		DailyRewards:  make(map[string]int64),
		Capacities:    make(map[string]map[string]int),
	}
	for kind, price := range game.ColonyPriceNano {
		resp.ColonyPrices[string(kind)] = ton.FormatNano(price)
	}
	for kind, price := range game.BeePriceNano {
		resp.BeePrices[string(kind)] = ton.FormatNano(price)
	}
	for kind, reward := range game.DailyReward {
		resp.DailyRewards[string(kind)] = reward
	}
	for colony, bees := range game.ColonyCapacity {
		m := make(map[string]int)
		for bee, capacity := range bees {
			m[string(bee)] = capacity
		}
		resp.Capacities[string(colony)] = m
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- POST /api/collect_nectar ---

type collectRequest struct {
	UserID int64 `json:"user_id"`
}

type collectResponse struct {
	Success bool  `json:"success"`
	Reward  int64 `json:"recompensa"`
	Balance int64 `json:"saldo"`
}

func (s *Server) handleCollectNectar(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	player, ok := s.playerByRequest(r.Context(), w, req.UserID)
	if !ok {
		return
	}

	result, err := s.treasury.Collect(r.Context(), player.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectResponse{
		Success: true,
		Reward:  result.Reward,
		Balance: result.Balance,
	})
}

// --- POST /api/buy_colony ---

type buyColonyRequest struct {
	UserID     int64  `json:"user_id"`
	ColonyType string `json:"colony_type"`
	TxID       string `json:"txid"`
}

func (s *Server) handleBuyColony(w http.ResponseWriter, r *http.Request) {
	var req buyColonyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	player, ok := s.playerByRequest(r.Context(), w, req.UserID)
	if !ok {
		return
	}

	if err := s.apiary.BuyColony(r.Context(), player.ID, game.ColonyKind(req.ColonyType), req.TxID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- POST /api/add_bee ---

type addBeeRequest struct {
	UserID   int64  `json:"user_id"`
	ColonyID int64  `json:"colony_id"`
	BeeType  string `json:"bee_type"`
	Quantity int    `json:"quantity"`
	TxID     string `json:"txid"`
}

func (s *Server) handleAddBee(w http.ResponseWriter, r *http.Request) {
	var req addBeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	player, ok := s.playerByRequest(r.Context(), w, req.UserID)
	if !ok {
		return
	}

	err := s.apiary.BuyBees(r.Context(), player.ID, req.ColonyID, game.BeeKind(req.BeeType), req.Quantity, req.TxID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- POST /api/withdraw ---

type withdrawRequest struct {
	UserID int64  `json:"user_id"`
	Litros int64  `json:"litros"`
	Wallet string `json:"wallet"`
}

type withdrawResponse struct {
	Success   bool  `json:"success"`
	RequestID int64 `json:"solicitud_id"`
	Gotas     int64 `json:"gotas"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	player, ok := s.playerByRequest(r.Context(), w, req.UserID)
	if !ok {
		return
	}

	result, err := s.treasury.Withdraw(r.Context(), player.ID, req.Litros, req.Wallet)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{
		Success:   true,
		RequestID: result.ID,
		Gotas:     result.Gotas,
	})
}

// --- POST /api/update_tutorial ---

type tutorialRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleUpdateTutorial(w http.ResponseWriter, r *http.Request) {
	var req tutorialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	player, ok := s.playerByRequest(r.Context(), w, req.UserID)
	if !ok {
		return
	}

	if err := s.players.CompleteTutorial(r.Context(), player.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
