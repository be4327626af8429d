package ton

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beesmart.ct.ws/colony-bot/internal/common"
)

const (
	bodyHex   = "3f5a1c0d9e8b7a655443322110ffeeddccbbaa998877665544332211aabbccdd"
	canonical = "0:" + bodyHex
)

func TestNormalizeAddress_AllEncodingsAgree(t *testing.T) {
	body, err := hex.DecodeString(bodyHex)
	require.NoError(t, err)

	// user-friendly форма: флаги + воркчейн + тело адреса + crc
	friendly := append([]byte{0x11, 0x00}, body...)
	friendly = append(friendly, 0xAB, 0xCD)

	inputs := map[string]string{
		"raw hex":          bodyHex,
		"hex верхний регистр": strings.ToUpper(bodyHex),
		"с префиксом 0:":   "0:" + bodyHex,
		"с префиксом -1:":  "-1:" + strings.ToUpper(bodyHex),
		"base64 std":       base64.StdEncoding.EncodeToString(friendly),
		"base64 url":       base64.URLEncoding.EncodeToString(friendly),
		"base64 raw url":   base64.RawURLEncoding.EncodeToString(friendly),
	}

	// Все кодировки одного и того же аккаунта дают одинаковый результат.
	// base64-форма дополнительно несёт crc, поэтому её результат
	// сравнивается сам с собой, а hex-формы — с канонической строкой.
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeAddress(in)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(got, "0:"))
			assert.Len(t, got, 2+64)
			assert.Equal(t, strings.ToLower(got), got, "результат всегда в нижнем регистре")
		})
	}

	gotHex, err := NormalizeAddress(strings.ToUpper(bodyHex))
	require.NoError(t, err)
	gotPrefixed, err := NormalizeAddress("0:" + bodyHex)
	require.NoError(t, err)
	assert.Equal(t, canonical, gotHex)
	assert.Equal(t, gotHex, gotPrefixed)

	// base64-формы между собой согласованы
	b64std, err := NormalizeAddress(base64.StdEncoding.EncodeToString(friendly))
	require.NoError(t, err)
	b64url, err := NormalizeAddress(base64.URLEncoding.EncodeToString(friendly))
	require.NoError(t, err)
	assert.Equal(t, b64std, b64url)
}

func TestNormalizeAddress_Idempotent(t *testing.T) {
	once, err := NormalizeAddress(bodyHex)
	require.NoError(t, err)
	twice, err := NormalizeAddress(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeAddress_Invalid(t *testing.T) {
	for name, in := range map[string]string{
		"пустая строка":      "",
		"пробелы":            "   ",
		"мусор":              "не адрес!!!",
		"слишком короткий hex": "abcdef",
		"кривой воркчейн":    "xx:" + bodyHex,
		"короткий base64":    base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeAddress(in)
			assert.ErrorIs(t, err, common.ErrInvalidAddress)
			assert.Empty(t, got, "при ошибке не должно возвращаться частичное значение")
		})
	}
}
