// client.go — клиент TonAPI (оракул транзакций).
// Оракул read-only: один best-effort запрос на проверку, без ретраев.
// Любой сбой (сеть, таймаут, кривой ответ, транзакция не найдена)
// схлопывается в common.ErrPaymentUnavailable — вызывающий не должен
// отличать «леджер недоступен» от «транзакции нет», и тем более
// не должен трактовать сбой как успех.
package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"beesmart.ct.ws/colony-bot/internal/common"
)

// Transfer — один перевод внутри транзакции: назначение, источник
// и сумма в наноТОН.
type Transfer struct {
	Destination string
	Source      string
	ValueNano   int64
}

// TransactionRecord — транзакция, какой её вернул оракул.
// InMsg — входящее сообщение (для депозитов на наш кошелёк),
// OutMsgs — исходящие переводы.
type TransactionRecord struct {
	Hash    string
	InMsg   *Transfer
	OutMsgs []Transfer
}

// Oracle — контракт оракула: получить транзакцию по ссылке.
// Реализуется Client-ом; в тестах подменяется заглушкой.
type Oracle interface {
	FetchTransaction(ctx context.Context, hash string) (*TransactionRecord, error)
}

// Client ходит в TonAPI v2 по HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создаёт клиент оракула.
// timeout — таймаут одного запроса целиком (подключение + чтение тела).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Структуры ответа TonAPI. Описаны только читаемые поля —
// остальной схеме мы ничего не навязываем.
type apiAccountAddress struct {
	Address string `json:"address"`
}

type apiMessage struct {
	Value       int64              `json:"value"`
	Destination *apiAccountAddress `json:"destination"`
	Source      *apiAccountAddress `json:"source"`
}

type apiTransaction struct {
	Hash    string       `json:"hash"`
	InMsg   *apiMessage  `json:"in_msg"`
	OutMsgs []apiMessage `json:"out_msgs"`
}

// FetchTransaction запрашивает транзакцию по её хешу.
// Возвращает запись или ошибку, в которую завёрнут ErrPaymentUnavailable.
func (c *Client) FetchTransaction(ctx context.Context, hash string) (*TransactionRecord, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, fmt.Errorf("%w: пустой хеш транзакции", common.ErrPaymentUnavailable)
	}

	url := fmt.Sprintf("%s/v2/blockchain/transactions/%s", c.baseURL, hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPaymentUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Сюда попадают и таймауты: таймаут — это Unavailable, не успех
		log.WithError(err).WithField("tx", hash).Warn("Оракул недоступен")
		return nil, fmt.Errorf("%w: %v", common.ErrPaymentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{
			"tx":     hash,
			"status": resp.StatusCode,
		}).Warn("Оракул вернул не-200")
		return nil, fmt.Errorf("%w: статус %d", common.ErrPaymentUnavailable, resp.StatusCode)
	}

	var raw apiTransaction
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: некорректный ответ оракула: %v", common.ErrPaymentUnavailable, err)
	}

	return convertTransaction(&raw), nil
}

// convertTransaction переводит DTO ответа в доменную запись.
func convertTransaction(raw *apiTransaction) *TransactionRecord {
	rec := &TransactionRecord{Hash: raw.Hash}

	if raw.InMsg != nil {
		rec.InMsg = &Transfer{
			ValueNano:   raw.InMsg.Value,
			Destination: addressOf(raw.InMsg.Destination),
			Source:      addressOf(raw.InMsg.Source),
		}
	}
	for _, m := range raw.OutMsgs {
		rec.OutMsgs = append(rec.OutMsgs, Transfer{
			ValueNano:   m.Value,
			Destination: addressOf(m.Destination),
			Source:      addressOf(m.Source),
		})
	}
	return rec
}

func addressOf(a *apiAccountAddress) string {
	if a == nil {
		return ""
	}
	return a.Address
}
