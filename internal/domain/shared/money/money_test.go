package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(1500, "pkr")
	require.NoError(t, err)
	assert.Equal(t, "PKR", m.Currency)

	_, err = New(100, "rupees")
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	_, err := Must(100, "PKR").Add(Must(50, "USD"))
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := Must(100, "PKR").Add(Must(50, "PKR"))
	require.NoError(t, err)
	assert.Equal(t, int64(150), sum.Amount)
}

func TestPercentRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount  int64
		percent int
		want    int64
	}{
		{300000, 5, 15000}, // exact
		{101, 5, 5},        // 5.05 rounds up
		{109, 5, 5},        // 5.45 rounds down
		{110, 5, 6},        // 5.50 rounds up
		{999, 50, 500},     // 499.5 rounds up
		{100, 0, 0},
	}
	for _, tc := range cases {
		got := Money{Amount: tc.amount, Currency: "PKR"}.Percent(tc.percent)
		assert.Equal(t, tc.want, got.Amount, "%d%% of %d", tc.percent, tc.amount)
		assert.Equal(t, "PKR", got.Currency)
	}
}
