package ton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beesmart.ct.ws/colony-bot/internal/common"
)

func TestParseTON(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0.38", 380_000_000},
		{"1", 1_000_000_000},
		{"15", 15_000_000_000},
		{"0.000000001", 1},
		{"25.5", 25_500_000_000},
		{"0", 0},
		{".5", 500_000_000},
		{" 8 ", 8_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTON_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"-1",
		"0.0000000001", // 10 знаков — точность наноТОН исчерпана
		"abc",
		"1.2.3",
		"1e9", // экспоненциальная запись не принимается
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTON(in)
			assert.ErrorIs(t, err, common.ErrInvalidAmount)
		})
	}
}

func TestMustNano(t *testing.T) {
	assert.Equal(t, int64(380_000_000), MustNano("0.38"))
	assert.Equal(t, int64(8_000_000_000), MustNano("8"))
	assert.Panics(t, func() { MustNano("0.38 TON") })
}

func TestFormatNano(t *testing.T) {
	assert.Equal(t, "0.38", FormatNano(380_000_000))
	assert.Equal(t, "15", FormatNano(15_000_000_000))
	assert.Equal(t, "0.000000001", FormatNano(1))
	assert.Equal(t, "0", FormatNano(0))
	assert.Equal(t, "-0.38", FormatNano(-380_000_000))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, n := range []int64{1, 380_000_000, 1_140_000_000, 25 * NanoPerTON} {
		back, err := ParseTON(FormatNano(n))
		require.NoError(t, err)
		assert.Equal(t, n, back)
	}
}
