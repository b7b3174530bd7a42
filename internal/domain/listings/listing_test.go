package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentbazaar/internal/domain/pricing"
	"rentbazaar/internal/domain/shared/money"
)

func newDraft(t *testing.T) *Listing {
	t.Helper()
	l, err := NewListing(CreateParams{
		ID:      ListingID("lst-1"),
		Owner:   OwnerID("owner-1"),
		Title:   "Canon EOS R6",
		Rates:   pricing.RateCard{Daily: money.Must(250000, "PKR")},
		Deposit: money.Must(1000000, "PKR"),
		Now:     time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return l
}

func TestNewListingValidation(t *testing.T) {
	_, err := NewListing(CreateParams{ID: "lst-1", Owner: "owner-1", Title: "  "})
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = NewListing(CreateParams{ID: "lst-1", Title: "x"})
	require.ErrorIs(t, err, ErrOwnerRequired)

	_, err = NewListing(CreateParams{
		ID: "lst-1", Owner: "owner-1", Title: "x",
		Rates: pricing.RateCard{Daily: money.Money{Amount: -1, Currency: "PKR"}},
	})
	require.ErrorIs(t, err, ErrNegativeRate)
}

func TestActivateRequiresRates(t *testing.T) {
	l := newDraft(t)
	l.Rates = pricing.RateCard{}
	err := l.Activate(time.Now())
	require.ErrorIs(t, err, pricing.ErrNoPricingAvailable)

	l = newDraft(t)
	require.NoError(t, l.Activate(time.Now()))
	assert.Equal(t, ListingActive, l.State)
}

func TestSuspendOnlyFromActive(t *testing.T) {
	l := newDraft(t)
	err := l.Suspend("policy violation", time.Now())
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, l.Activate(time.Now()))
	require.NoError(t, l.Suspend("policy violation", time.Now()))
	assert.Equal(t, ListingSuspended, l.State)
}

func TestBlockDatesDeduplicates(t *testing.T) {
	l := newDraft(t)
	day := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	l.BlockDates([]time.Time{day, day.Add(3 * time.Hour)}, time.Now())
	require.Len(t, l.Availability.BlockedDates, 1)
	assert.True(t, l.Availability.Blocked(day))

	l.UnblockDates([]time.Time{day}, time.Now())
	assert.False(t, l.Availability.Blocked(day))
}
