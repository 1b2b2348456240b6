package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_AddRejectsCurrencyMismatch(t *testing.T) {
	_, err := Must(100, "EUR").Add(Must(100, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_DivRound(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		by     int64
		want   int64
	}{
		{"exact", 15000, 3, 5000},
		{"round down", 10001, 3, 3334},
		{"round half up", 5, 2, 3},
		{"negative half", -5, 2, -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Must(tc.amount, "EUR").DivRound(tc.by)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Amount)
		})
	}

	_, err := Must(1, "EUR").DivRound(0)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestMoney_ClampAndString(t *testing.T) {
	assert.Equal(t, int64(0), Must(-300, "EUR").ClampZero().Amount)
	assert.Equal(t, "130.00 EUR", Must(13000, "EUR").String())
	assert.Equal(t, "-0.05 EUR", Must(-5, "EUR").String())
	assert.Equal(t, int64(20), Must(50, "EUR").Min(Must(20, "EUR")).Amount)
}
