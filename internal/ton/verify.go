// verify.go — проверка платежа по заявленному txid.
//
// Правило одно и оно каноническое: платёж засчитан, если
//  1. хеш записи, которую вернул оракул, равен запрошенному txid
//     (защита от оракула, молча подставившего другую запись);
//  2. сумма входящего сообщения РАВНА ожидаемой в наноТОН
//     (целочисленное сравнение, никаких float и округлений);
//  3. нормализованный адрес назначения равен нормализованному
//     адресу нашего кошелька.
//
// Депозит на наш кошелёк — это входящее сообщение транзакции на
// принимающем аккаунте, поэтому проверяется всегда in_msg;
// исходящие переводы записи игнорируются.
//
// Адрес отправителя НЕ проверяется: владение платящим кошельком
// не доказывается, достаточно знания txid с совпадающими
// получателем и суммой. Отправитель сохраняется только для аудита.
package ton

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/common"
)

// Verifier проверяет платежи на адрес кошелька игры.
type Verifier struct {
	oracle    Oracle
	recipient string // каноническая форма адреса кошелька игры
}

// NewVerifier создаёт верификатор. Адрес кошелька нормализуется
// один раз здесь; кривой адрес в конфиге — ошибка старта, не рантайма.
func NewVerifier(oracle Oracle, walletAddress string) (*Verifier, error) {
	recipient, err := NormalizeAddress(walletAddress)
	if err != nil {
		return nil, fmt.Errorf("адрес кошелька игры: %w", err)
	}
	return &Verifier{oracle: oracle, recipient: recipient}, nil
}

// Recipient возвращает канонический адрес кошелька игры.
func (v *Verifier) Recipient() string {
	return v.recipient
}

// Verify решает: Matched (nil) / NotMatched / Unavailable.
//
// expectedNano — точная ожидаемая сумма в наноТОН. Перевод на
// наноТОН-1 или наноТОН+1 не совпадает.
func (v *Verifier) Verify(ctx context.Context, txid string, expectedNano int64) error {
	if strings.TrimSpace(txid) == "" {
		return fmt.Errorf("%w: пустой txid", common.ErrInvalidRequest)
	}
	if expectedNano <= 0 {
		return common.ErrInvalidAmount
	}

	rec, err := v.oracle.FetchTransaction(ctx, txid)
	if err != nil {
		if errors.Is(err, common.ErrPaymentUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrPaymentUnavailable, err)
	}

	logger := log.WithFields(log.Fields{
		"tx":       txid,
		"expected": expectedNano,
	})

	if rec.Hash != txid {
		logger.WithField("oracle_hash", rec.Hash).Warn("Оракул вернул другую транзакцию")
		return common.ErrPaymentNotMatched
	}

	if rec.InMsg == nil {
		logger.Warn("В транзакции нет входящего сообщения")
		return common.ErrPaymentNotMatched
	}

	if rec.InMsg.ValueNano != expectedNano {
		logger.WithField("actual", rec.InMsg.ValueNano).Info("Сумма платежа не совпала")
		return common.ErrPaymentNotMatched
	}

	dest, err := NormalizeAddress(rec.InMsg.Destination)
	if err != nil {
		logger.WithError(err).Warn("Адрес назначения не нормализуется")
		return common.ErrPaymentNotMatched
	}
	if dest != v.recipient {
		logger.WithFields(log.Fields{
			"dest":     dest,
			"expected": v.recipient,
		}).Info("Платёж ушёл не на наш кошелёк")
		return common.ErrPaymentNotMatched
	}

	logger.Debug("Платёж подтверждён")
	return nil
}
