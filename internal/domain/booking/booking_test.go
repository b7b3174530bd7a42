package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentbazaar/internal/domain/listings"
	"rentbazaar/internal/domain/pricing"
	"rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/money"
)

var (
	renter = Actor{ID: "renter-1", Role: RoleRenter}
	owner  = Actor{ID: "owner-1", Role: RoleOwner}
	admin  = Actor{ID: "admin-1", Role: RoleAdmin}
)

func testRange(t *testing.T, startDay, endDay int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.May, startDay, 12, 0, 0, 0, time.UTC),
		time.Date(2026, time.May, endDay, 12, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dr
}

func testBreakdown() pricing.Breakdown {
	return pricing.Breakdown{
		PriceType:  pricing.PriceDaily,
		UnitPrice:  money.Must(100000, "PKR"),
		Duration:   pricing.Duration{Value: 3, Unit: pricing.UnitDays},
		Subtotal:   money.Must(300000, "PKR"),
		ServiceFee: money.Must(15000, "PKR"),
		Total:      money.Must(315000, "PKR"),
	}
}

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(CreateParams{
		Reference: "bk-001",
		ListingID: listings.ListingID("lst-1"),
		RenterID:  renter.ID,
		OwnerID:   owner.ID,
		Range:     testRange(t, 10, 13),
		Price:     testBreakdown(),
		CreatedAt: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingGuards(t *testing.T) {
	t.Run("self booking rejected", func(t *testing.T) {
		_, err := NewBooking(CreateParams{
			Reference: "bk-002",
			RenterID:  "same",
			OwnerID:   "same",
			Range:     testRange(t, 10, 13),
			Price:     testBreakdown(),
		})
		require.ErrorIs(t, err, ErrSelfBooking)
	})

	t.Run("zero total rejected", func(t *testing.T) {
		_, err := NewBooking(CreateParams{
			Reference: "bk-003",
			RenterID:  renter.ID,
			OwnerID:   owner.ID,
			Range:     testRange(t, 10, 13),
		})
		require.ErrorIs(t, err, ErrZeroTotal)
	})

	t.Run("new booking is pending and records event", func(t *testing.T) {
		b := newTestBooking(t)
		assert.Equal(t, StatusPending, b.Status)
		assert.Equal(t, PaymentPending, b.Payment)
		recorded := b.PendingEvents()
		require.Len(t, recorded, 1)
		assert.Equal(t, "booking.requested", recorded[0].EventName())
	})
}

func TestFullLifecycle(t *testing.T) {
	b := newTestBooking(t)
	now := b.CreatedAt

	require.NoError(t, b.Approve(owner, now.Add(time.Hour)))
	assert.Equal(t, StatusApproved, b.Status)

	require.NoError(t, b.ConfirmCheckIn(owner.ID, b.Range.Start))
	assert.Equal(t, StatusInProgress, b.Status)
	assert.Equal(t, owner.ID, b.CheckIn.ConfirmedBy)

	damage := &DamageReport{Notes: "scratched panel", PhotoURLs: []string{"https://cdn/x.jpg"}}
	require.NoError(t, b.ConfirmCheckOut(owner.ID, damage, b.Range.End))
	assert.Equal(t, StatusCompleted, b.Status)
	assert.Equal(t, damage, b.CheckOut.Damage)
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusInProgress, true},
		{StatusApproved, StatusOverdue, true},
		{StatusApproved, StatusRejected, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusApproved, false},
		{StatusOverdue, StatusCompleted, true},
		{StatusOverdue, StatusCancelled, true},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, reachable(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestApproveAuthorization(t *testing.T) {
	b := newTestBooking(t)
	err := b.Approve(renter, time.Now())
	require.ErrorIs(t, err, ErrUnauthorizedTransition)
	assert.Equal(t, StatusPending, b.Status)

	require.NoError(t, b.Approve(admin, time.Now()))
}

func TestRejectIsTerminal(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Reject(owner, "dates unavailable", time.Now()))
	assert.Equal(t, StatusRejected, b.Status)

	err := b.Approve(owner, time.Now())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelComputesRefundOnlyWhenPaid(t *testing.T) {
	policy := StandardRefundPolicy{}

	t.Run("unpaid cancellation carries no refund", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Cancel(renter, "changed plans", policy, b.Range.Start.Add(-72*time.Hour)))
		require.NotNil(t, b.Cancellation)
		assert.Equal(t, RefundNotApplicable, b.Cancellation.RefundStatus)
		assert.True(t, b.Cancellation.RefundAmount.IsZero())
	})

	t.Run("paid cancellation with 72h notice refunds in full", func(t *testing.T) {
		b := newTestBooking(t)
		b.SetPaymentStatus(PaymentPaid, time.Now())
		require.NoError(t, b.Cancel(renter, "changed plans", policy, b.Range.Start.Add(-72*time.Hour)))
		assert.Equal(t, int64(315000), b.Cancellation.RefundAmount.Amount)
		assert.Equal(t, RefundPending, b.Cancellation.RefundStatus)
	})

	t.Run("in progress booking only cancellable by admin", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Approve(owner, time.Now()))
		require.NoError(t, b.ConfirmCheckIn(owner.ID, b.Range.Start))

		err := b.Cancel(renter, "want out", policy, time.Now())
		require.ErrorIs(t, err, ErrUnauthorizedTransition)

		require.NoError(t, b.Cancel(admin, "dispute resolution", policy, time.Now()))
		assert.Equal(t, StatusCancelled, b.Status)
	})

	t.Run("cancelled booking is terminal", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Cancel(renter, "", policy, time.Now()))
		err := b.Cancel(admin, "", policy, time.Now())
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestOverdue(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Approve(owner, b.CreatedAt))

	assert.False(t, b.IsOverdue(b.Range.End.Add(-time.Hour)))
	assert.True(t, b.IsOverdue(b.Range.End.Add(time.Hour)))

	err := b.MarkOverdue(b.Range.End.Add(-time.Hour))
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, b.MarkOverdue(b.Range.End.Add(time.Hour)))
	assert.Equal(t, StatusOverdue, b.Status)

	// a late return can still be checked out
	require.NoError(t, b.ConfirmCheckOut(owner.ID, nil, b.Range.End.Add(2*time.Hour)))
	assert.Equal(t, StatusCompleted, b.Status)
	assert.False(t, b.IsOverdue(b.Range.End.Add(3*time.Hour)))
}

func TestExtensionLifecycle(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Approve(owner, b.CreatedAt))

	t.Run("proposed end must extend", func(t *testing.T) {
		_, err := b.RequestExtension("ext-0", b.Range.End.Add(-time.Hour), money.Must(100, "PKR"), time.Now())
		require.ErrorIs(t, err, ErrExtensionTooShort)
	})

	proposed := b.Range.End.Add(48 * time.Hour)
	additional := money.Must(200000, "PKR")
	_, err := b.RequestExtension("ext-1", proposed, additional, time.Now())
	require.NoError(t, err)

	require.NoError(t, b.ApproveExtension("ext-1", time.Now()))
	assert.Equal(t, proposed, b.Range.End)
	assert.Equal(t, proposed, b.CheckOut.ScheduledAt)
	assert.Equal(t, int64(515000), b.Price.Total.Amount)
	assert.Equal(t, int64(300000), b.Price.Subtotal.Amount, "original subtotal untouched")
	assert.Equal(t, int64(15000), b.Price.ServiceFee.Amount, "no extra fee on extensions")
	require.Len(t, b.Price.AdditionalFees, 1)
	assert.Equal(t, "extension", b.Price.AdditionalFees[0].Name)

	err = b.ApproveExtension("ext-1", time.Now())
	require.ErrorIs(t, err, ErrExtensionDecided)
}

func TestExtensionRejectLeavesBookingUnchanged(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Approve(owner, b.CreatedAt))
	originalEnd := b.Range.End

	_, err := b.RequestExtension("ext-1", originalEnd.Add(24*time.Hour), money.Must(100000, "PKR"), time.Now())
	require.NoError(t, err)
	require.NoError(t, b.RejectExtension("ext-1", time.Now()))

	assert.Equal(t, originalEnd, b.Range.End)
	assert.Equal(t, int64(315000), b.Price.Total.Amount)
	req, err := b.Extension("ext-1")
	require.NoError(t, err)
	assert.Equal(t, ExtensionRejected, req.Status)
}
