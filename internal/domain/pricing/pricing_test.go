package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/money"
)

func rangeOfDays(start, end int) daterange.DateRange {
	dr, err := daterange.New(
		time.Date(2026, time.March, start, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, end, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		panic(err)
	}
	return dr
}

func TestCalculateDailyTier(t *testing.T) {
	card := RateCard{Daily: money.Must(100000, "PKR")}
	deposit := money.Must(500000, "PKR")

	got, err := Calculate(card, deposit, rangeOfDays(5, 8), PriceDaily)
	require.NoError(t, err)

	assert.Equal(t, PriceDaily, got.PriceType)
	assert.Equal(t, Duration{Value: 3, Unit: UnitDays}, got.Duration)
	assert.Equal(t, int64(300000), got.Subtotal.Amount)
	assert.Equal(t, int64(15000), got.ServiceFee.Amount)
	assert.Equal(t, int64(315000), got.Total.Amount)
	// deposit is copied into the breakdown but never added to the total
	assert.Equal(t, deposit, got.Deposit)
}

func TestCalculateFallsBackWhenTierMissing(t *testing.T) {
	t.Run("weekly only, short rental bills one week", func(t *testing.T) {
		card := RateCard{Weekly: money.Must(700000, "PKR")}
		got, err := Calculate(card, money.Money{Currency: "PKR"}, rangeOfDays(5, 8), PriceDaily)
		require.NoError(t, err)
		assert.Equal(t, PriceWeekly, got.PriceType)
		assert.Equal(t, Duration{Value: 1, Unit: UnitWeeks}, got.Duration)
		assert.Equal(t, int64(700000), got.Subtotal.Amount)
	})

	t.Run("daily preferred over hourly in fallback order", func(t *testing.T) {
		card := RateCard{
			Hourly: money.Must(5000, "PKR"),
			Daily:  money.Must(100000, "PKR"),
		}
		got, err := Calculate(card, money.Money{Currency: "PKR"}, rangeOfDays(5, 8), PriceMonthly)
		require.NoError(t, err)
		assert.Equal(t, PriceDaily, got.PriceType)
	})

	t.Run("hourly is the last resort", func(t *testing.T) {
		card := RateCard{Hourly: money.Must(5000, "PKR")}
		got, err := Calculate(card, money.Money{Currency: "PKR"}, rangeOfDays(5, 7), "")
		require.NoError(t, err)
		assert.Equal(t, PriceHourly, got.PriceType)
		assert.Equal(t, Duration{Value: 48, Unit: UnitHours}, got.Duration)
		assert.Equal(t, int64(240000), got.Subtotal.Amount)
	})
}

func TestCalculateNoUsableTier(t *testing.T) {
	_, err := Calculate(RateCard{}, money.Money{}, rangeOfDays(5, 8), PriceDaily)
	require.ErrorIs(t, err, ErrNoPricingAvailable)
}

func TestCalculateMonthlyCeil(t *testing.T) {
	card := RateCard{Monthly: money.Must(2000000, "PKR")}
	got, err := Calculate(card, money.Money{Currency: "PKR"}, rangeOfDays(1, 2), PriceMonthly)
	require.NoError(t, err)
	assert.Equal(t, Duration{Value: 1, Unit: UnitMonths}, got.Duration)

	long, err := daterange.New(
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC), // 45 days
	)
	require.NoError(t, err)
	got, err = Calculate(card, money.Money{Currency: "PKR"}, long, PriceMonthly)
	require.NoError(t, err)
	assert.Equal(t, Duration{Value: 2, Unit: UnitMonths}, got.Duration)
	assert.Equal(t, int64(4000000), got.Subtotal.Amount)
}

func TestExtensionAmountUsesFrozenUnitPrice(t *testing.T) {
	card := RateCard{Daily: money.Must(100000, "PKR")}
	original, err := Calculate(card, money.Money{Currency: "PKR"}, rangeOfDays(5, 8), PriceDaily)
	require.NoError(t, err)

	additional, err := ExtensionAmount(original, rangeOfDays(8, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(200000), additional.Amount, "two extra days at the frozen daily rate, no extra fee")
}

func TestBreakdownCopyIsolatesFees(t *testing.T) {
	b := Breakdown{AdditionalFees: []Fee{{Name: "extension", Amount: money.Must(100, "PKR")}}}
	clone := b.Copy()
	clone.AdditionalFees[0].Name = "changed"
	assert.Equal(t, "extension", b.AdditionalFees[0].Name)
}
