package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentbazaar/internal/app/commands"
	domainbooking "rentbazaar/internal/domain/booking"
)

func (fx *fixture) requestExtension(t *testing.T, ref string, endDay int) (*ExtensionResult, error) {
	t.Helper()
	cmd := RequestExtensionCommand{
		ExtensionID: "ext-1",
		Reference:   ref,
		RenterID:    "renter-1",
		ProposedEnd: fx.day(endDay),
	}
	return commands.Dispatch[RequestExtensionCommand, *ExtensionResult](context.Background(), fx.commands, cmd)
}

func (fx *fixture) decideExtension(t *testing.T, ref string, approve bool) (*ExtensionResult, error) {
	t.Helper()
	cmd := DecideExtensionCommand{
		Reference:   ref,
		ExtensionID: "ext-1",
		OwnerID:     "owner-1",
		Approve:     approve,
	}
	return commands.Dispatch[DecideExtensionCommand, *ExtensionResult](context.Background(), fx.commands, cmd)
}

func TestExtensionApprovalExtendsBookingAndTotal(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	ref := created.Booking.Reference
	_, err = fx.transition(t, ref, "approved", ownerActor())
	require.NoError(t, err)

	requested, err := fx.requestExtension(t, ref, 10)
	require.NoError(t, err)
	require.Len(t, requested.Booking.Extensions, 1)
	// two extra days at the frozen daily rate, no second service fee
	assert.Equal(t, int64(200000), requested.Booking.Extensions[0].AdditionalAmount.Amount)
	assert.Equal(t, "pending", requested.Booking.Extensions[0].Status)

	decided, err := fx.decideExtension(t, ref, true)
	require.NoError(t, err)
	assert.Equal(t, fx.day(10), decided.Booking.EndDate)
	assert.Equal(t, int64(515000), decided.Booking.Price.Total.Amount)
	assert.Equal(t, int64(300000), decided.Booking.Price.Subtotal.Amount, "original subtotal stays frozen")
}

func TestExtensionApprovalBlockedByLaterBooking(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	ref := created.Booking.Reference
	_, err = fx.transition(t, ref, "approved", ownerActor())
	require.NoError(t, err)

	// another renter claims the days right after
	_, err = fx.createBooking(t, "renter-2", 9, 12)
	require.NoError(t, err)

	_, err = fx.requestExtension(t, ref, 10)
	require.NoError(t, err)

	_, err = fx.decideExtension(t, ref, true)
	require.ErrorIs(t, err, domainbooking.ErrRangeConflict, "extension cannot take days held by another booking")
}

func TestExtensionRejectionLeavesRangeUnchanged(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	ref := created.Booking.Reference
	_, err = fx.transition(t, ref, "approved", ownerActor())
	require.NoError(t, err)

	_, err = fx.requestExtension(t, ref, 10)
	require.NoError(t, err)

	decided, err := fx.decideExtension(t, ref, false)
	require.NoError(t, err)
	assert.Equal(t, fx.day(8), decided.Booking.EndDate)
	assert.Equal(t, int64(315000), decided.Booking.Price.Total.Amount)
	assert.Equal(t, "rejected", decided.Booking.Extensions[0].Status)
}

func TestExtensionDecisionByWrongOwnerDenied(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	ref := created.Booking.Reference
	_, err = fx.transition(t, ref, "approved", ownerActor())
	require.NoError(t, err)

	_, err = fx.requestExtension(t, ref, 10)
	require.NoError(t, err)

	cmd := DecideExtensionCommand{Reference: ref, ExtensionID: "ext-1", OwnerID: "usr-impostor", Approve: true}
	_, err = commands.Dispatch[DecideExtensionCommand, *ExtensionResult](context.Background(), fx.commands, cmd)
	require.ErrorIs(t, err, domainbooking.ErrUnauthorizedTransition)
}
