package schedule

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

func seedBooking(t *testing.T, repo *memory.BookingRepository, ref string, status domainbooking.Status, start, end time.Time) *domainbooking.Booking {
	t.Helper()
	dr, err := domainrange.New(start, end)
	require.NoError(t, err)
	price := domainpricing.Breakdown{
		PriceType: domainpricing.PriceDaily,
		UnitPrice: money.Must(100000, "PKR"),
		Subtotal:  money.Must(300000, "PKR"),
		Total:     money.Must(315000, "PKR"),
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		Reference: ref,
		ListingID: domainlistings.ListingID("lst-1"),
		RenterID:  "renter-1",
		OwnerID:   "owner-1",
		Range:     dr,
		Price:     price,
		CreatedAt: start.Add(-72 * time.Hour),
	})
	require.NoError(t, err)
	b.Status = status
	b.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), b))
	return b
}

func TestSweepOnceMarksEndedBookingsOverdue(t *testing.T) {
	bookings := memory.NewBookingRepository()
	factory := &memory.Factory{
		ListingsRepo: memory.NewListingRepository(),
		BookingRepo:  bookings,
	}
	box := memory.NewOutbox()
	now := time.Date(2026, time.July, 20, 12, 0, 0, 0, time.UTC)

	ended := seedBooking(t, bookings, "bk-ended", domainbooking.StatusInProgress,
		time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC))
	ongoing := seedBooking(t, bookings, "bk-ongoing", domainbooking.StatusApproved,
		time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 25, 0, 0, 0, 0, time.UTC))
	finished := seedBooking(t, bookings, "bk-finished", domainbooking.StatusCompleted,
		time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC))

	sweeper := &OverdueSweeper{
		UoWFactory: factory,
		Outbox:     box,
		Now:        func() time.Time { return now },
	}
	require.NoError(t, sweeper.SweepOnce(context.Background()))

	assert.Equal(t, domainbooking.StatusOverdue, ended.Status)
	assert.Equal(t, domainbooking.StatusApproved, ongoing.Status)
	assert.Equal(t, domainbooking.StatusCompleted, finished.Status)

	records := box.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "booking.marked_overdue", records[0].Name)
	assert.Equal(t, "bk-ended", records[0].Aggregate)
}

func TestSweepOnceIsIdempotent(t *testing.T) {
	bookings := memory.NewBookingRepository()
	factory := &memory.Factory{
		ListingsRepo: memory.NewListingRepository(),
		BookingRepo:  bookings,
	}
	box := memory.NewOutbox()
	now := time.Date(2026, time.July, 20, 12, 0, 0, 0, time.UTC)

	seedBooking(t, bookings, "bk-ended", domainbooking.StatusApproved,
		time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC))

	sweeper := &OverdueSweeper{
		UoWFactory: factory,
		Outbox:     box,
		Now:        func() time.Time { return now },
	}
	require.NoError(t, sweeper.SweepOnce(context.Background()))
	require.NoError(t, box.Flush(context.Background()))

	// a second pass finds nothing to mark and emits nothing
	require.NoError(t, sweeper.SweepOnce(context.Background()))
	assert.Empty(t, box.Records())
}

func TestSweepRequiresFactory(t *testing.T) {
	sweeper := &OverdueSweeper{}
	err := sweeper.Run(context.Background())
	require.ErrorIs(t, err, ErrSweeperNotConfigured)
}
