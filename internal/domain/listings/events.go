package listings

import "time"

type ListingCreatedEvent struct {
	ListingID ListingID
	Owner     OwnerID
	At        time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }

type ListingActivatedEvent struct {
	ListingID ListingID
	Owner     OwnerID
	At        time.Time
}

func (e ListingActivatedEvent) EventName() string     { return "listing.activated" }
func (e ListingActivatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingActivatedEvent) OccurredAt() time.Time { return e.At }

type ListingSuspendedEvent struct {
	ListingID ListingID
	Reason    string
	At        time.Time
}

func (e ListingSuspendedEvent) EventName() string     { return "listing.suspended" }
func (e ListingSuspendedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingSuspendedEvent) OccurredAt() time.Time { return e.At }

type ListingRatesUpdatedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingRatesUpdatedEvent) EventName() string     { return "listing.rates_updated" }
func (e ListingRatesUpdatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingRatesUpdatedEvent) OccurredAt() time.Time { return e.At }

type ListingDatesBlockedEvent struct {
	ListingID ListingID
	Dates     []time.Time
	At        time.Time
}

func (e ListingDatesBlockedEvent) EventName() string     { return "listing.dates_blocked" }
func (e ListingDatesBlockedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingDatesBlockedEvent) OccurredAt() time.Time { return e.At }
