package booking

import (
	"time"

	"rentbazaar/internal/domain/shared/money"
)

// RefundPolicy computes the refund entitlement for a cancelled booking from
// the time remaining until its start date.
type RefundPolicy interface {
	RefundFor(total money.Money, cancelledAt, startDate time.Time) (money.Money, RefundStatus)
}

// StandardRefundPolicy is a step function over the notice the renter gives:
// full refund at 48 hours or more, half at 24 hours or more, nothing below
// that. Boundaries are inclusive toward the better outcome.
type StandardRefundPolicy struct{}

func (StandardRefundPolicy) RefundFor(total money.Money, cancelledAt, startDate time.Time) (money.Money, RefundStatus) {
	notice := startDate.Sub(cancelledAt)
	var percent int
	switch {
	case notice >= 48*time.Hour:
		percent = 100
	case notice >= 24*time.Hour:
		percent = 50
	default:
		percent = 0
	}
	if percent == 0 {
		return money.Money{Currency: total.Currency}, RefundNotApplicable
	}
	return total.Percent(percent), RefundPending
}
