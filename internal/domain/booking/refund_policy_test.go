package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rentbazaar/internal/domain/shared/money"
)

func TestStandardRefundPolicy(t *testing.T) {
	start := time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)
	total := money.Must(315000, "PKR")
	policy := StandardRefundPolicy{}

	cases := []struct {
		name       string
		cancelled  time.Time
		wantAmount int64
		wantStatus RefundStatus
	}{
		{"72h notice full refund", start.Add(-72 * time.Hour), 315000, RefundPending},
		{"exactly 48h full refund", start.Add(-48 * time.Hour), 315000, RefundPending},
		{"just under 48h half refund", start.Add(-48*time.Hour + time.Minute), 157500, RefundPending},
		{"exactly 24h half refund", start.Add(-24 * time.Hour), 157500, RefundPending},
		{"just under 24h no refund", start.Add(-24*time.Hour + time.Minute), 0, RefundNotApplicable},
		{"after start no refund", start.Add(time.Hour), 0, RefundNotApplicable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, status := policy.RefundFor(total, tc.cancelled, start)
			assert.Equal(t, tc.wantAmount, amount.Amount)
			assert.Equal(t, "PKR", amount.Currency)
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}

func TestStandardRefundPolicyHalfUpRounding(t *testing.T) {
	start := time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)
	amount, _ := StandardRefundPolicy{}.RefundFor(money.Must(315001, "PKR"), start.Add(-30*time.Hour), start)
	assert.Equal(t, int64(157501), amount.Amount, "157500.5 rounds up")
}
