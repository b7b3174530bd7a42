package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentbazaar/internal/app/commands"
	domainbooking "rentbazaar/internal/domain/booking"
)

func (fx *fixture) transition(t *testing.T, ref, target string, actor domainbooking.Actor) (*TransitionBookingResult, error) {
	t.Helper()
	cmd := TransitionBookingCommand{Reference: ref, Target: target, Actor: actor}
	return commands.Dispatch[TransitionBookingCommand, *TransitionBookingResult](context.Background(), fx.commands, cmd)
}

func ownerActor() domainbooking.Actor {
	return domainbooking.Actor{ID: "owner-1", Role: domainbooking.RoleOwner}
}

func renterActor() domainbooking.Actor {
	return domainbooking.Actor{ID: "renter-1", Role: domainbooking.RoleRenter}
}

func TestTransitionApproveByOwner(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)

	result, err := fx.transition(t, created.Booking.Reference, "approved", ownerActor())
	require.NoError(t, err)
	assert.Equal(t, "approved", result.Booking.Status)
}

func TestTransitionApproveByRenterDenied(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)

	_, err = fx.transition(t, created.Booking.Reference, "approved", renterActor())
	require.ErrorIs(t, err, domainbooking.ErrUnauthorizedTransition)
}

func TestTransitionUnknownTarget(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)

	_, err = fx.transition(t, created.Booking.Reference, "teleported", ownerActor())
	require.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestTransitionCancelPaidBookingComputesRefund(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)

	b, err := fx.factory.BookingRepo.ByReference(context.Background(), created.Booking.Reference)
	require.NoError(t, err)
	b.SetPaymentStatus(domainbooking.PaymentPaid, fx.now)
	b.ClearEvents()
	require.NoError(t, fx.factory.BookingRepo.Save(context.Background(), b))

	// now is July 1, start is July 5, more than 48h of notice
	result, err := fx.transition(t, created.Booking.Reference, "cancelled", renterActor())
	require.NoError(t, err)
	require.NotNil(t, result.Booking.Cancellation)
	assert.Equal(t, int64(315000), result.Booking.Cancellation.RefundAmount.Amount)
	assert.Equal(t, "pending", result.Booking.Cancellation.RefundStatus)
}

func TestTransitionCancelWithShortNoticeHalvesRefund(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)

	b, err := fx.factory.BookingRepo.ByReference(context.Background(), created.Booking.Reference)
	require.NoError(t, err)
	b.SetPaymentStatus(domainbooking.PaymentPaid, fx.now)
	b.ClearEvents()
	require.NoError(t, fx.factory.BookingRepo.Save(context.Background(), b))

	fx.now = fx.day(4) // 24h before the start
	result, err := fx.transition(t, created.Booking.Reference, "cancelled", renterActor())
	require.NoError(t, err)
	require.NotNil(t, result.Booking.Cancellation)
	assert.Equal(t, int64(157500), result.Booking.Cancellation.RefundAmount.Amount)
}

func TestTransitionFullLifecycle(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	ref := created.Booking.Reference

	_, err = fx.transition(t, ref, "approved", ownerActor())
	require.NoError(t, err)

	fx.now = fx.day(5).Add(9 * time.Hour)
	_, err = fx.transition(t, ref, "in_progress", renterActor())
	require.NoError(t, err)

	fx.now = fx.day(8).Add(10 * time.Hour)
	result, err := fx.transition(t, ref, "completed", ownerActor())
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Booking.Status)
}

func TestTransitionCheckInByStrangerDenied(t *testing.T) {
	fx := newFixture(t)
	fx.seedListing(t)
	created, err := fx.createBooking(t, "renter-1", 5, 8)
	require.NoError(t, err)
	_, err = fx.transition(t, created.Booking.Reference, "approved", ownerActor())
	require.NoError(t, err)

	stranger := domainbooking.Actor{ID: "usr-someone-else", Role: domainbooking.RoleRenter}
	_, err = fx.transition(t, created.Booking.Reference, "in_progress", stranger)
	require.ErrorIs(t, err, domainbooking.ErrUnauthorizedTransition)
}
