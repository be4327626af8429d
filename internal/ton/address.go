// Package ton отвечает за всё, что связано с внешним леджером TON:
// нормализацию адресов, точную арифметику наноТОН, клиент tonapi
// и проверку платежей.
//
// address.go — нормализатор адресов. TonAPI может вернуть адрес
// в трёх кодировках: raw hex, hex с префиксом воркчейна ("0:...")
// и base64 (user-friendly форма). Все они приводятся к единой
// канонической форме "0:<64 hex в нижнем регистре>", после чего
// адреса сравниваются обычным сравнением строк.
package ton

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"beesmart.ct.ws/colony-bot/internal/common"
)

// hexBodyLen — длина тела адреса (256 бит) в hex-символах.
const hexBodyLen = 64

// NormalizeAddress приводит адрес к канонической форме "0:<64 hex>".
// Чистая функция: ни сети, ни состояния. Пустой или нераспознаваемый
// вход — ошибка, никогда не пустая строка (пустая строка совпала бы
// с другой пустой строкой при сравнении адресов).
func NormalizeAddress(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: пустой адрес", common.ErrInvalidAddress)
	}

	// Срезаем существующий префикс воркчейна ("0:", "-1:"), если он есть.
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		if _, err := strconv.Atoi(s[:idx]); err != nil {
			return "", fmt.Errorf("%w: некорректный воркчейн %q", common.ErrInvalidAddress, s[:idx])
		}
		s = s[idx+1:]
	}

	// Попытка 1: тело адреса уже в hex.
	if len(s) == hexBodyLen && isHex(s) {
		return "0:" + strings.ToLower(s), nil
	}

	// Попытка 2: base64 (std/url, с паддингом и без).
	if decoded, ok := decodeBase64(s); ok {
		body := hex.EncodeToString(decoded)
		if len(body) < hexBodyLen {
			return "", fmt.Errorf("%w: адрес короче %d hex-символов", common.ErrInvalidAddress, hexBodyLen)
		}
		// В user-friendly форме перед телом адреса идут служебные байты.
		// Тело — ровно последние 64 hex-символа.
		return "0:" + body[len(body)-hexBodyLen:], nil
	}

	return "", fmt.Errorf("%w: не hex и не base64: %q", common.ErrInvalidAddress, raw)
}

// isHex сообщает, состоит ли строка только из hex-символов.
func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}

// decodeBase64 пробует все четыре варианта base64-кодировок.
func decodeBase64(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}
