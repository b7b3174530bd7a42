package dto

import "time"

// BookedRangeView is a privacy-reduced projection of a holding booking used
// by the availability calendar. Renter identity and price are not exposed.
type BookedRangeView struct {
	Reference string    `json:"reference"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
}

type CalendarView struct {
	ListingID    string            `json:"listing_id"`
	BlockedDates []time.Time       `json:"blocked_dates"`
	BookedRanges []BookedRangeView `json:"booked_ranges"`
}

type QuoteView struct {
	ListingID string        `json:"listing_id"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Price     BreakdownView `json:"price"`
}
