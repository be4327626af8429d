// amount.go — точная конвертация между человеческой деноминацией (TON)
// и наименьшей неделимой единицей (наноТОН).
//
// Внутри системы суммы существуют ТОЛЬКО как int64 наноТОН.
// Конвертация из десятичной записи выполняется на границе системы
// (парсинг запроса, форматирование ответа) и только целочисленно:
// float здесь — прямой вектор кражи через ошибки округления.
package ton

import (
	"fmt"
	"strconv"
	"strings"

	"beesmart.ct.ws/colony-bot/internal/common"
)

// NanoPerTON — наноТОН в одном TON.
const NanoPerTON = int64(1_000_000_000)

// maxFracDigits — максимум знаков после запятой в записи TON.
const maxFracDigits = 9

// ParseTON разбирает десятичную строку вида "0.38" или "15" в наноТОН.
// Конвертация точная: больше 9 знаков после запятой — ошибка,
// а не молчаливое округление.
func ParseTON(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: пустая сумма", common.ErrInvalidAmount)
	}

	neg := strings.HasPrefix(s, "-")
	if neg {
		return 0, fmt.Errorf("%w: отрицательная сумма %q", common.ErrInvalidAmount, s)
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, fracPart = s[:idx], s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > maxFracDigits {
		return 0, fmt.Errorf("%w: больше %d знаков после запятой: %q", common.ErrInvalidAmount, maxFracDigits, s)
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
	}

	var frac int64
	if fracPart != "" {
		frac, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
		}
		// Добиваем недостающие разряды: "0.38" → 380000000
		for i := len(fracPart); i < maxFracDigits; i++ {
			frac *= 10
		}
	}

	if whole > (1<<62)/NanoPerTON {
		return 0, fmt.Errorf("%w: сумма слишком велика: %q", common.ErrInvalidAmount, s)
	}

	return whole*NanoPerTON + frac, nil
}

// MustNano — ParseTON для констант каталога: паника на кривом литерале.
// По образцу regexp.MustCompile — ошибка здесь это опечатка в коде,
// а не входные данные.
func MustNano(s string) int64 {
	n, err := ParseTON(s)
	if err != nil {
		panic(err)
	}
	return n
}

// FormatNano форматирует наноТОН обратно в десятичную запись TON
// без хвостовых нулей: 380000000 → "0.38", 15000000000 → "15".
func FormatNano(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	whole := n / NanoPerTON
	frac := n % NanoPerTON
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, fracStr)
}
