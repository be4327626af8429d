package ton

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beesmart.ct.ws/colony-bot/internal/common"
)

// stubOracle — оракул-заглушка для тестов верификатора.
type stubOracle struct {
	rec *TransactionRecord
	err error
}

func (s *stubOracle) FetchTransaction(ctx context.Context, hash string) (*TransactionRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rec, nil
}

func testWallet(t *testing.T) string {
	t.Helper()
	// Для тестов достаточно hex-формы
	return "0:" + bodyHex
}

func record(hash string, value int64, dest string) *TransactionRecord {
	return &TransactionRecord{
		Hash: hash,
		InMsg: &Transfer{
			ValueNano:   value,
			Destination: dest,
			Source:      "0:1111111111111111111111111111111111111111111111111111111111111111",
		},
	}
}

func TestVerify_Matched(t *testing.T) {
	oracle := &stubOracle{rec: record("tx1", 1_140_000_000, bodyHex)}
	v, err := NewVerifier(oracle, testWallet(t))
	require.NoError(t, err)

	assert.NoError(t, v.Verify(context.Background(), "tx1", 1_140_000_000))
}

func TestVerify_AmountExactness(t *testing.T) {
	// Перевод на наноТОН больше или меньше ожидаемого — не совпадение
	for _, value := range []int64{1_139_999_999, 1_140_000_001} {
		oracle := &stubOracle{rec: record("tx1", value, bodyHex)}
		v, err := NewVerifier(oracle, testWallet(t))
		require.NoError(t, err)

		err = v.Verify(context.Background(), "tx1", 1_140_000_000)
		assert.ErrorIs(t, err, common.ErrPaymentNotMatched)
	}
}

func TestVerify_HashSubstitution(t *testing.T) {
	// Оракул вернул другую запись — не доказательство
	oracle := &stubOracle{rec: record("другой-хеш", 100, bodyHex)}
	v, err := NewVerifier(oracle, testWallet(t))
	require.NoError(t, err)

	err = v.Verify(context.Background(), "tx1", 100)
	assert.ErrorIs(t, err, common.ErrPaymentNotMatched)
}

func TestVerify_WrongDestination(t *testing.T) {
	other := "2222222222222222222222222222222222222222222222222222222222222222"
	oracle := &stubOracle{rec: record("tx1", 100, other)}
	v, err := NewVerifier(oracle, testWallet(t))
	require.NoError(t, err)

	err = v.Verify(context.Background(), "tx1", 100)
	assert.ErrorIs(t, err, common.ErrPaymentNotMatched)
}

func TestVerify_DestinationEncodingDoesNotMatter(t *testing.T) {
	// Оракул может отдать адрес с префиксом и в другом регистре —
	// нормализация обязана уравнять формы
	oracle := &stubOracle{rec: record("tx1", 100, "0:"+bodyHex)}
	v, err := NewVerifier(oracle, bodyHex)
	require.NoError(t, err)

	assert.NoError(t, v.Verify(context.Background(), "tx1", 100))
}

func TestVerify_NoInboundMessage(t *testing.T) {
	oracle := &stubOracle{rec: &TransactionRecord{Hash: "tx1"}}
	v, err := NewVerifier(oracle, testWallet(t))
	require.NoError(t, err)

	err = v.Verify(context.Background(), "tx1", 100)
	assert.ErrorIs(t, err, common.ErrPaymentNotMatched)
}

func TestVerify_Unavailable(t *testing.T) {
	oracle := &stubOracle{err: common.ErrPaymentUnavailable}
	v, err := NewVerifier(oracle, testWallet(t))
	require.NoError(t, err)

	err = v.Verify(context.Background(), "tx1", 100)
	assert.ErrorIs(t, err, common.ErrPaymentUnavailable)
	assert.NotErrorIs(t, err, common.ErrPaymentNotMatched)
}

func TestVerify_EmptyTxID(t *testing.T) {
	v, err := NewVerifier(&stubOracle{}, testWallet(t))
	require.NoError(t, err)

	err = v.Verify(context.Background(), "  ", 100)
	assert.ErrorIs(t, err, common.ErrInvalidRequest)
}

func TestNewVerifier_BadWallet(t *testing.T) {
	_, err := NewVerifier(&stubOracle{}, "не адрес")
	assert.ErrorIs(t, err, common.ErrInvalidAddress)
}

// --- Клиент оракула против HTTP-заглушки ---

func TestClient_FetchTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/blockchain/transactions/tx1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"hash": "tx1",
			"in_msg": map[string]any{
				"value":       1_140_000_000,
				"destination": map[string]any{"address": "0:" + bodyHex},
				"source":      map[string]any{"address": "0:1111111111111111111111111111111111111111111111111111111111111111"},
			},
			"out_msgs": []any{},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	rec, err := c.FetchTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, "tx1", rec.Hash)
	require.NotNil(t, rec.InMsg)
	assert.EqualValues(t, 1_140_000_000, rec.InMsg.ValueNano)
	assert.Equal(t, "0:"+bodyHex, rec.InMsg.Destination)
}

func TestClient_NotFoundIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"transaction not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.FetchTransaction(context.Background(), "нет-такой")
	assert.ErrorIs(t, err, common.ErrPaymentUnavailable)
}

func TestClient_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	_, err := c.FetchTransaction(context.Background(), "tx1")
	assert.ErrorIs(t, err, common.ErrPaymentUnavailable)
}

func TestClient_MalformedBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("это не json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.FetchTransaction(context.Background(), "tx1")
	assert.ErrorIs(t, err, common.ErrPaymentUnavailable)
}
