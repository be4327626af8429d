// Package admin — service.go содержит аутентификацию и операции админки.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/payments"
	"beesmart.ct.ws/colony-bot/internal/features/treasury"
)

const (
	sessionTTL     = 24 * time.Hour
	maxAttempts    = 3
	attemptsWindow = 1 * time.Hour
)

// WithdrawalStore — операции с заявками на вывод, нужные админке.
// Реализуется *treasury.Repository.
type WithdrawalStore interface {
	PendingWithdrawals(ctx context.Context) ([]*treasury.WithdrawRequest, error)
	MarkPaid(ctx context.Context, requestID int64) error
}

// ClaimStore — чтение погашенных платежей для аудита.
// Реализуется *payments.Repository.
type ClaimStore interface {
	GetByTxID(ctx context.Context, txid string) (*payments.Claim, error)
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*payments.Claim, error)
}

// Service управляет админ-сессиями, заявками на вывод и аудитом платежей.
type Service struct {
	withdrawals  WithdrawalStore
	claims       ClaimStore
	passwordHash string

	mu       sync.Mutex
	sessions map[int64]*Session
	attempts map[int64]*loginAttempts
}

// NewService создаёт сервис админки.
// passwordHash — Argon2id-хеш пароля из конфигурации.
func NewService(withdrawals WithdrawalStore, claims ClaimStore, passwordHash string) *Service {
	return &Service{
		withdrawals:  withdrawals,
		claims:       claims,
		passwordHash: passwordHash,
		sessions:     make(map[int64]*Session),
		attempts:     make(map[int64]*loginAttempts),
	}
}

// Login проверяет пароль и открывает сессию на 24 часа.
// Три неудачные попытки за час блокируют вход до истечения окна.
func (s *Service) Login(userID int64, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	att := s.recentAttempts(userID, now)
	if len(att.times) >= maxAttempts {
		log.WithField("user_id", userID).Warn("Превышен лимит попыток входа в админку")
		return common.ErrTooManyAttempts
	}

	if !verifyArgon2id(password, s.passwordHash) {
		att.times = append(att.times, now)
		log.WithField("user_id", userID).Warn("Неверный пароль админки")
		return common.ErrWrongPassword
	}

	delete(s.attempts, userID)
	s.sessions[userID] = &Session{
		UserID:    userID,
		Token:     generateSecureToken(),
		ExpiresAt: now.Add(sessionTTL),
	}
	log.WithField("user_id", userID).Info("Админ вошёл в систему")
	return nil
}

// IsAuthenticated проверяет, есть ли у пользователя активная сессия.
func (s *Service) IsAuthenticated(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, userID)
		return false
	}
	return true
}

// Logout закрывает сессию.
func (s *Service) Logout(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// PendingWithdrawals возвращает заявки, ожидающие выплаты.
func (s *Service) PendingWithdrawals(ctx context.Context, userID int64) ([]*treasury.WithdrawRequest, error) {
	if !s.IsAuthenticated(userID) {
		return nil, common.ErrNotAdmin
	}
	return s.withdrawals.PendingWithdrawals(ctx)
}

// MarkPaid помечает заявку выплаченной.
func (s *Service) MarkPaid(ctx context.Context, userID, requestID int64) error {
	if !s.IsAuthenticated(userID) {
		return common.ErrNotAdmin
	}
	if err := s.withdrawals.MarkPaid(ctx, requestID); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id":   userID,
		"request_id": requestID,
	}).Info("Заявка на вывод помечена выплаченной")
	return nil
}

// ClaimByTxID возвращает запись о погашенном платеже (спор «я же платил»).
func (s *Service) ClaimByTxID(ctx context.Context, userID int64, txid string) (*payments.Claim, error) {
	if !s.IsAuthenticated(userID) {
		return nil, common.ErrNotAdmin
	}
	return s.claims.GetByTxID(ctx, txid)
}

// PlayerClaims возвращает последние платежи игрока.
func (s *Service) PlayerClaims(ctx context.Context, userID, playerID int64) ([]*payments.Claim, error) {
	if !s.IsAuthenticated(userID) {
		return nil, common.ErrNotAdmin
	}
	return s.claims.GetByPlayer(ctx, playerID, 10)
}

// recentAttempts возвращает попытки userID внутри окна, отбрасывая старые.
// Вызывается под s.mu.
func (s *Service) recentAttempts(userID int64, now time.Time) *loginAttempts {
	att, ok := s.attempts[userID]
	if !ok {
		att = &loginAttempts{}
		s.attempts[userID] = att
	}
	kept := att.times[:0]
	for _, t := range att.times {
		if now.Sub(t) < attemptsWindow {
			kept = append(kept, t)
		}
	}
	att.times = kept
	return att
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу в формате
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt_b64>$<hash_b64>.
// Сравнение в постоянном времени.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
