package dto

import (
	"time"

	domainbooking "rentbazaar/internal/domain/booking"
	"rentbazaar/internal/domain/pricing"
)

type MoneyView struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BreakdownView struct {
	PriceType      string    `json:"price_type"`
	UnitPrice      MoneyView `json:"unit_price"`
	DurationValue  int       `json:"duration_value"`
	DurationUnit   string    `json:"duration_unit"`
	Subtotal       MoneyView `json:"subtotal"`
	ServiceFee     MoneyView `json:"service_fee"`
	AdditionalFees []FeeView `json:"additional_fees,omitempty"`
	Deposit        MoneyView `json:"deposit"`
	Total          MoneyView `json:"total"`
}

type FeeView struct {
	Name   string    `json:"name"`
	Amount MoneyView `json:"amount"`
}

type CancellationView struct {
	By           string    `json:"by"`
	Role         string    `json:"role"`
	Reason       string    `json:"reason,omitempty"`
	RefundAmount MoneyView `json:"refund_amount"`
	RefundStatus string    `json:"refund_status"`
	At           time.Time `json:"at"`
}

type ExtensionView struct {
	ID               string    `json:"id"`
	ProposedEnd      time.Time `json:"proposed_end"`
	AdditionalAmount MoneyView `json:"additional_amount"`
	Status           string    `json:"status"`
	RequestedAt      time.Time `json:"requested_at"`
	DecidedAt        time.Time `json:"decided_at,omitempty"`
}

type DamageView struct {
	Notes     string   `json:"notes,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

type CheckView struct {
	ScheduledAt time.Time   `json:"scheduled_at"`
	ActualAt    time.Time   `json:"actual_at,omitempty"`
	ConfirmedBy string      `json:"confirmed_by,omitempty"`
	Damage      *DamageView `json:"damage,omitempty"`
}

type BookingView struct {
	Reference     string            `json:"reference"`
	ListingID     string            `json:"listing_id"`
	RenterID      string            `json:"renter_id"`
	OwnerID       string            `json:"owner_id"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       time.Time         `json:"end_date"`
	Status        string            `json:"status"`
	Overdue       bool              `json:"overdue"`
	PaymentStatus string            `json:"payment_status"`
	Price         BreakdownView     `json:"price"`
	Message       string            `json:"message,omitempty"`
	Cancellation  *CancellationView `json:"cancellation,omitempty"`
	Extensions    []ExtensionView   `json:"extensions,omitempty"`
	CheckIn       *CheckView        `json:"check_in,omitempty"`
	CheckOut      *CheckView        `json:"check_out,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

// MapBooking projects the aggregate for API responses. Overdue is derived
// from the clock so reads stay accurate between sweep runs.
func MapBooking(b *domainbooking.Booking, now time.Time) BookingView {
	view := BookingView{
		Reference:     b.Reference,
		ListingID:     string(b.ListingID),
		RenterID:      b.RenterID,
		OwnerID:       b.OwnerID,
		StartDate:     b.Range.Start,
		EndDate:       b.Range.End,
		Status:        string(b.Status),
		Overdue:       b.Status == domainbooking.StatusOverdue || b.IsOverdue(now),
		PaymentStatus: string(b.Payment),
		Price:         mapBreakdown(b),
		Message:       b.Message,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.Cancellation != nil {
		view.Cancellation = &CancellationView{
			By:           b.Cancellation.By.ID,
			Role:         string(b.Cancellation.By.Role),
			Reason:       b.Cancellation.Reason,
			RefundAmount: mapMoney(b.Cancellation.RefundAmount),
			RefundStatus: string(b.Cancellation.RefundStatus),
			At:           b.Cancellation.At,
		}
	}
	for _, ext := range b.Extensions {
		view.Extensions = append(view.Extensions, ExtensionView{
			ID:               ext.ID,
			ProposedEnd:      ext.ProposedEnd,
			AdditionalAmount: mapMoney(ext.AdditionalAmount),
			Status:           string(ext.Status),
			RequestedAt:      ext.RequestedAt,
			DecidedAt:        ext.DecidedAt,
		})
	}
	view.CheckIn = mapCheck(b.CheckIn)
	view.CheckOut = mapCheck(b.CheckOut)
	return view
}

func mapBreakdown(b *domainbooking.Booking) BreakdownView {
	return MapBreakdown(b.Price)
}

// MapBreakdown projects a price breakdown, frozen or quoted.
func MapBreakdown(bd pricing.Breakdown) BreakdownView {
	view := BreakdownView{
		PriceType:     string(bd.PriceType),
		UnitPrice:     mapMoney(bd.UnitPrice),
		DurationValue: bd.Duration.Value,
		DurationUnit:  string(bd.Duration.Unit),
		Subtotal:      mapMoney(bd.Subtotal),
		ServiceFee:    mapMoney(bd.ServiceFee),
		Deposit:       mapMoney(bd.Deposit),
		Total:         mapMoney(bd.Total),
	}
	for _, fee := range bd.AdditionalFees {
		view.AdditionalFees = append(view.AdditionalFees, FeeView{Name: fee.Name, Amount: mapMoney(fee.Amount)})
	}
	return view
}

func mapCheck(c *domainbooking.CheckRecord) *CheckView {
	if c == nil {
		return nil
	}
	view := &CheckView{ScheduledAt: c.ScheduledAt, ActualAt: c.ActualAt, ConfirmedBy: c.ConfirmedBy}
	if c.Damage != nil {
		view.Damage = &DamageView{Notes: c.Damage.Notes, PhotoURLs: append([]string(nil), c.Damage.PhotoURLs...)}
	}
	return view
}
