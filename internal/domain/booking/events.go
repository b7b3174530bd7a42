package booking

import (
	"time"

	"rentbazaar/internal/domain/listings"
	"rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/money"
)

type BookingRequested struct {
	Reference string
	ListingID listings.ListingID
	RenterID  string
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return e.Reference }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	Reference string
	At        time.Time
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return e.Reference }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	Reference string
	Reason    string
	At        time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return e.Reference }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	Reference    string
	By           Actor
	Reason       string
	Refund       money.Money
	RefundStatus RefundStatus
	At           time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return e.Reference }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCheckedIn struct {
	Reference string
	At        time.Time
}

func (e BookingCheckedIn) EventName() string     { return "booking.checked_in" }
func (e BookingCheckedIn) AggregateID() string   { return e.Reference }
func (e BookingCheckedIn) OccurredAt() time.Time { return e.At }

type BookingCheckedOut struct {
	Reference string
	Damaged   bool
	At        time.Time
}

func (e BookingCheckedOut) EventName() string     { return "booking.checked_out" }
func (e BookingCheckedOut) AggregateID() string   { return e.Reference }
func (e BookingCheckedOut) OccurredAt() time.Time { return e.At }

type BookingMarkedOverdue struct {
	Reference string
	EndDate   time.Time
	At        time.Time
}

func (e BookingMarkedOverdue) EventName() string     { return "booking.marked_overdue" }
func (e BookingMarkedOverdue) AggregateID() string   { return e.Reference }
func (e BookingMarkedOverdue) OccurredAt() time.Time { return e.At }

type ExtensionRequested struct {
	Reference   string
	ExtensionID string
	ProposedEnd time.Time
	Additional  money.Money
	At          time.Time
}

func (e ExtensionRequested) EventName() string     { return "booking.extension_requested" }
func (e ExtensionRequested) AggregateID() string   { return e.Reference }
func (e ExtensionRequested) OccurredAt() time.Time { return e.At }

type ExtensionDecided struct {
	Reference   string
	ExtensionID string
	Approved    bool
	NewEnd      time.Time
	At          time.Time
}

func (e ExtensionDecided) EventName() string     { return "booking.extension_decided" }
func (e ExtensionDecided) AggregateID() string   { return e.Reference }
func (e ExtensionDecided) OccurredAt() time.Time { return e.At }
