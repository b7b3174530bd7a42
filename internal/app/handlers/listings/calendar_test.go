package listings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	domainrange "rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/money"
	"rentbazaar/internal/infra/storage/memory"
)

func day(d int) time.Time {
	return time.Date(2026, time.August, d, 0, 0, 0, 0, time.UTC)
}

func seedFixtures(t *testing.T) *memory.Factory {
	t.Helper()
	factory := &memory.Factory{
		ListingsRepo: memory.NewListingRepository(),
		BookingRepo:  memory.NewBookingRepository(),
	}
	now := day(1)

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:    "lst-1",
		Owner: "owner-1",
		Title: "Alpine tent",
		Rates: domainpricing.RateCard{
			Daily:  money.Must(120000, "PKR"),
			Weekly: money.Must(600000, "PKR"),
		},
		Deposit: money.Must(800000, "PKR"),
		Now:     now,
	})
	require.NoError(t, err)
	require.NoError(t, listing.Activate(now))
	listing.BlockDates([]time.Time{day(20)}, now)
	listing.ClearEvents()
	require.NoError(t, factory.ListingsRepo.Save(context.Background(), listing))

	seedHolding := func(ref string, status domainbooking.Status, start, end time.Time) {
		dr, err := domainrange.New(start, end)
		require.NoError(t, err)
		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			Reference: ref,
			ListingID: listing.ID,
			RenterID:  "renter-1",
			OwnerID:   "owner-1",
			Range:     dr,
			Price: domainpricing.Breakdown{
				PriceType: domainpricing.PriceDaily,
				UnitPrice: money.Must(120000, "PKR"),
				Subtotal:  money.Must(240000, "PKR"),
				Total:     money.Must(252000, "PKR"),
			},
			CreatedAt: now,
		})
		require.NoError(t, err)
		b.Status = status
		b.ClearEvents()
		require.NoError(t, factory.BookingRepo.Save(context.Background(), b))
	}
	seedHolding("bk-approved", domainbooking.StatusApproved, day(10), day(12))
	seedHolding("bk-pending", domainbooking.StatusPending, day(5), day(7))
	seedHolding("bk-rejected", domainbooking.StatusRejected, day(14), day(16))

	return factory
}

func TestCalendarMergesBlockedAndHoldingRanges(t *testing.T) {
	factory := seedFixtures(t)
	handler := &CalendarHandler{UoWFactory: factory}

	view, err := handler.Handle(context.Background(), CalendarQuery{ListingID: "lst-1"})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{day(20)}, view.BlockedDates)
	require.Len(t, view.BookedRanges, 2, "rejected bookings do not hold the range")
	assert.Equal(t, "bk-pending", view.BookedRanges[0].Reference)
	assert.Equal(t, "bk-approved", view.BookedRanges[1].Reference)
}

func TestCalendarUnknownListing(t *testing.T) {
	factory := seedFixtures(t)
	handler := &CalendarHandler{UoWFactory: factory}

	_, err := handler.Handle(context.Background(), CalendarQuery{ListingID: "lst-missing"})
	require.ErrorIs(t, err, domainlistings.ErrListingNotFound)
}

func TestQuotePricesWithoutReserving(t *testing.T) {
	factory := seedFixtures(t)
	handler := &QuoteHandler{UoWFactory: factory}

	view, err := handler.Handle(context.Background(), QuoteQuery{
		ListingID: "lst-1",
		StartDate: day(3),
		EndDate:   day(6),
	})
	require.NoError(t, err)
	assert.Equal(t, "daily", view.Price.PriceType)
	assert.Equal(t, int64(360000), view.Price.Subtotal.Amount)
	assert.Equal(t, int64(18000), view.Price.ServiceFee.Amount)
	assert.Equal(t, int64(378000), view.Price.Total.Amount)
	assert.Equal(t, int64(800000), view.Price.Deposit.Amount)
}

func TestQuoteHonorsExplicitPriceType(t *testing.T) {
	factory := seedFixtures(t)
	handler := &QuoteHandler{UoWFactory: factory}

	view, err := handler.Handle(context.Background(), QuoteQuery{
		ListingID: "lst-1",
		StartDate: day(3),
		EndDate:   day(6),
		PriceType: "weekly",
	})
	require.NoError(t, err)
	assert.Equal(t, "weekly", view.Price.PriceType)
	assert.Equal(t, int64(600000), view.Price.Subtotal.Amount)
}

func TestListOwnerListings(t *testing.T) {
	factory := seedFixtures(t)
	handler := &ListOwnerListingsHandler{UoWFactory: factory}

	result, err := handler.Handle(context.Background(), ListOwnerListingsQuery{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "lst-1", result.Items[0].ID)

	empty, err := handler.Handle(context.Background(), ListOwnerListingsQuery{OwnerID: "owner-2"})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}
