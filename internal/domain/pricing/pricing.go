package pricing

import (
	"errors"

	"rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/money"
)

var (
	ErrNoPricingAvailable = errors.New("pricing: listing has no usable rate tier")
	ErrCurrencyUnset      = errors.New("pricing: currency must be defined")
)

// ServiceFeePercent is the flat platform fee applied to every booking subtotal.
const ServiceFeePercent = 5

// PriceType identifies a rate tier on a listing's rate card.
type PriceType string

const (
	PriceHourly  PriceType = "hourly"
	PriceDaily   PriceType = "daily"
	PriceWeekly  PriceType = "weekly"
	PriceMonthly PriceType = "monthly"
)

// fallbackOrder is consulted when the requested tier is absent. Many listings
// only populate one or two tiers.
var fallbackOrder = []PriceType{PriceDaily, PriceWeekly, PriceMonthly, PriceHourly}

// DurationUnit names the unit a booking duration is billed in.
type DurationUnit string

const (
	UnitHours  DurationUnit = "hours"
	UnitDays   DurationUnit = "days"
	UnitWeeks  DurationUnit = "weeks"
	UnitMonths DurationUnit = "months"
)

// Duration is a billable value + unit pair derived from a date range and the
// selected rate tier.
type Duration struct {
	Value int
	Unit  DurationUnit
}

// RateCard holds the per-tier rates of a listing. A zero amount means the
// tier is not offered.
type RateCard struct {
	Hourly  money.Money
	Daily   money.Money
	Weekly  money.Money
	Monthly money.Money
}

// Rate returns the rate for the given tier.
func (rc RateCard) Rate(pt PriceType) money.Money {
	switch pt {
	case PriceHourly:
		return rc.Hourly
	case PriceDaily:
		return rc.Daily
	case PriceWeekly:
		return rc.Weekly
	case PriceMonthly:
		return rc.Monthly
	}
	return money.Money{}
}

// Empty reports whether no tier on the card carries a positive rate.
func (rc RateCard) Empty() bool {
	for _, pt := range fallbackOrder {
		if rc.Rate(pt).IsPositive() {
			return false
		}
	}
	return true
}

type Fee struct {
	Name   string
	Amount money.Money
}

// Breakdown is the price snapshot captured at booking time. It is never
// recomputed from the listing afterwards; the listing's rates may change but
// the booking's price is frozen.
type Breakdown struct {
	PriceType      PriceType
	UnitPrice      money.Money
	Duration       Duration
	Subtotal       money.Money
	ServiceFee     money.Money
	AdditionalFees []Fee
	Deposit        money.Money
	Total          money.Money
}

// Copy returns a breakdown with its own fee slice.
func (b Breakdown) Copy() Breakdown {
	clone := b
	clone.AdditionalFees = append([]Fee(nil), b.AdditionalFees...)
	return clone
}

// Calculate derives a deterministic breakdown from a rate card and a date
// range. Tier selection uses the requested type when the listing defines a
// positive rate for it, otherwise falls back daily, weekly, monthly, hourly.
// The service fee is the only rounding point; the deposit is copied verbatim
// and is not part of the total.
func Calculate(card RateCard, deposit money.Money, dr daterange.DateRange, requested PriceType) (Breakdown, error) {
	if err := dr.Validate(); err != nil {
		return Breakdown{}, err
	}
	tier, rate, ok := selectTier(card, requested)
	if !ok {
		return Breakdown{}, ErrNoPricingAvailable
	}
	if rate.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}

	dur := convertDuration(dr, tier)
	subtotal := rate.Multiply(int64(dur.Value))
	fee := subtotal.Percent(ServiceFeePercent)
	total, err := subtotal.Add(fee)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		PriceType:  tier,
		UnitPrice:  rate,
		Duration:   dur,
		Subtotal:   subtotal,
		ServiceFee: fee,
		Deposit:    deposit,
		Total:      total,
	}, nil
}

// ExtensionAmount prices the added segment of an approved extension using the
// frozen unit price of the original booking. No additional service fee is
// charged on extensions.
func ExtensionAmount(b Breakdown, segment daterange.DateRange) (money.Money, error) {
	if err := segment.Validate(); err != nil {
		return money.Money{}, err
	}
	dur := convertDuration(segment, b.PriceType)
	return b.UnitPrice.Multiply(int64(dur.Value)), nil
}

func selectTier(card RateCard, requested PriceType) (PriceType, money.Money, bool) {
	if requested != "" {
		if rate := card.Rate(requested); rate.IsPositive() {
			return requested, rate, true
		}
	}
	for _, pt := range fallbackOrder {
		if rate := card.Rate(pt); rate.IsPositive() {
			return pt, rate, true
		}
	}
	return "", money.Money{}, false
}

func convertDuration(dr daterange.DateRange, tier PriceType) Duration {
	days := dr.Days()
	switch tier {
	case PriceHourly:
		return Duration{Value: days * 24, Unit: UnitHours}
	case PriceWeekly:
		return Duration{Value: ceilDiv(days, 7), Unit: UnitWeeks}
	case PriceMonthly:
		return Duration{Value: ceilDiv(days, 30), Unit: UnitMonths}
	default:
		return Duration{Value: days, Unit: UnitDays}
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
