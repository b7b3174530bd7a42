package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentbazaar/internal/app/commands"
	"rentbazaar/internal/app/middleware"
	"rentbazaar/internal/app/uow"
	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	"rentbazaar/internal/domain/shared/money"
	"rentbazaar/internal/infra/storage/memory"
)

type fixture struct {
	commands commands.Bus
	factory  *memory.Factory
	outbox   *memory.Outbox
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		factory: &memory.Factory{
			ListingsRepo: memory.NewListingRepository(),
			BookingRepo:  memory.NewBookingRepository(),
		},
		outbox: memory.NewOutbox(),
		now:    time.Date(2026, time.July, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return fx.now }

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, CreateBookingCommand{}.Key(), &CreateBookingHandler{Outbox: fx.outbox, Now: clock})
	commands.RegisterHandler(bus, TransitionBookingCommand{}.Key(), &TransitionBookingHandler{Outbox: fx.outbox, Now: clock})
	commands.RegisterHandler(bus, RequestExtensionCommand{}.Key(), &RequestExtensionHandler{Outbox: fx.outbox, Now: clock})
	commands.RegisterHandler(bus, DecideExtensionCommand{}.Key(), &DecideExtensionHandler{Outbox: fx.outbox, Now: clock})

	fx.commands = middleware.ChainCommands(
		bus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(fx.factory, nil),
		middleware.OutboxFlush(fx.outbox),
	)
	return fx
}

func (fx *fixture) seedListing(t *testing.T) *domainlistings.Listing {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:      "lst-1",
		Owner:   "owner-1",
		Title:   "Canon EOS R6",
		Rates:   domainpricing.RateCard{Daily: money.Must(100000, "PKR")},
		Deposit: money.Must(500000, "PKR"),
		Now:     fx.now,
	})
	require.NoError(t, err)
	require.NoError(t, listing.Activate(fx.now))
	listing.ClearEvents()
	require.NoError(t, fx.factory.ListingsRepo.Save(context.Background(), listing))
	return listing
}

func (fx *fixture) day(d int) time.Time {
	return time.Date(2026, time.July, d, 0, 0, 0, 0, time.UTC)
}

func (fx *fixture) createBooking(t *testing.T, renter string, startDay, endDay int) (*CreateBookingResult, error) {
	t.Helper()
	cmd := CreateBookingCommand{
		CommandID: "bk-" + renter + "-" + time.Now().Format("150405.000000000"),
		ListingID: "lst-1",
		RenterID:  renter,
		StartDate: fx.day(startDay),
		EndDate:   fx.day(endDay),
	}
	return commands.Dispatch[CreateBookingCommand, *CreateBookingResult](context.Background(), fx.commands, cmd)
}

func TestCreateBookingComputesPriceAndHoldsRange(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)

	result, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	assert.Equal(t, "pending", result.Booking.Status)
	assert.Equal(t, int64(300000), result.Booking.Price.Subtotal.Amount)
	assert.Equal(t, int64(15000), result.Booking.Price.ServiceFee.Amount)
	assert.Equal(t, int64(315000), result.Booking.Price.Total.Amount)
	assert.Equal(t, int64(500000), result.Booking.Price.Deposit.Amount)

	// outbox was flushed by the middleware after commit
	assert.Empty(t, fx.outbox.Records())
}

func TestCreateBookingRejectsOverlapWithPendingBooking(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)

	_, err := fx.createBooking(t, "renter-1", 5, 10)
	require.NoError(t, err)

	_, err = fx.createBooking(t, "renter-2", 8, 12)
	require.ErrorIs(t, err, domainbooking.ErrRangeConflict)

	// shared endpoint also conflicts
	_, err = fx.createBooking(t, "renter-2", 10, 14)
	require.ErrorIs(t, err, domainbooking.ErrRangeConflict)

	// disjoint range goes through
	_, err = fx.createBooking(t, "renter-2", 11, 14)
	require.NoError(t, err)
}

func TestCreateBookingAllowedAfterRejection(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)

	first, err := fx.createBooking(t, "renter-1", 5, 10)
	require.NoError(t, err)

	_, err = fx.transition(t, first.Booking.Reference, "rejected", domainbooking.Actor{ID: "owner-1", Role: domainbooking.RoleOwner})
	require.NoError(t, err)

	_, err = fx.createBooking(t, "renter-2", 5, 10)
	require.NoError(t, err, "rejected bookings release their range")
}

func TestCreateBookingRejectsBlockedDates(t *testing.T) {
	fx := newFixture(t)
	listing := fx.seedListing(t)
	listing.BlockDates([]time.Time{fx.day(6)}, fx.now)
	listing.ClearEvents()
	require.NoError(t, fx.factory.ListingsRepo.Save(context.Background(), listing))

	_, err := fx.createBooking(t, "renter-1", 5, 8)
	require.ErrorIs(t, err, domainbooking.ErrDatesBlocked)
}

func TestCreateBookingRejectsSelfBooking(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)

	_, err := fx.createBooking(t, "owner-1", 5, 8)
	require.ErrorIs(t, err, domainbooking.ErrSelfBooking)
}

func TestCreateBookingRejectsPastStart(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)

	cmd := CreateBookingCommand{
		CommandID: "bk-past",
		ListingID: "lst-1",
		RenterID:  "renter-1",
		StartDate: fx.now.AddDate(0, 0, -3),
		EndDate:   fx.now.AddDate(0, 0, 3),
	}
	_, err := commands.Dispatch[CreateBookingCommand, *CreateBookingResult](context.Background(), fx.commands, cmd)
	require.ErrorIs(t, err, domainbooking.ErrStartInPast)
}

func TestCreateBookingValidationRejectsBlankFields(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)

	cmd := CreateBookingCommand{
		CommandID: "bk-no-listing",
		RenterID:  "renter-1",
		StartDate: fx.day(5),
		EndDate:   fx.day(8),
	}
	_, err := commands.Dispatch[CreateBookingCommand, *CreateBookingResult](context.Background(), fx.commands, cmd)
	require.EqualError(t, err, "booking: listing id is required")
}

func TestCreateBookingIdempotentRetry(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)

	cmd := CreateBookingCommand{
		CommandID:       "bk-retry",
		ListingID:       "lst-1",
		RenterID:        "renter-1",
		StartDate:       fx.day(5),
		EndDate:         fx.day(8),
		IdempotencyKeyV: "idem-123",
	}
	first, err := commands.Dispatch[CreateBookingCommand, *CreateBookingResult](context.Background(), fx.commands, cmd)
	require.NoError(t, err)

	second, err := commands.Dispatch[CreateBookingCommand, *CreateBookingResult](context.Background(), fx.commands, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.Booking.Reference, second.Booking.Reference, "retry replays the stored result instead of double booking")

	unit, err := fx.factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())
	bookings, err := unit.Bookings().ListByRenter(context.Background(), "renter-1")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestCreateBookingFallsBackToWeeklyTier(t *testing.T) {
	fx := newFixture(t)
	listing := fx.seedListing(t)
	require.NoError(t, listing.UpdateRates(domainpricing.RateCard{Weekly: money.Must(700000, "PKR")}, money.Money{Currency: "PKR"}, fx.now))
	listing.ClearEvents()
	require.NoError(t, fx.factory.ListingsRepo.Save(context.Background(), listing))

	result, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	assert.Equal(t, "weekly", result.Booking.Price.PriceType)
	assert.Equal(t, int64(700000), result.Booking.Price.Subtotal.Amount)
}
