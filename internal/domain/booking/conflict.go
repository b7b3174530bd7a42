package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentbazaar/internal/domain/listings"
	"rentbazaar/internal/domain/shared/daterange"
)

var (
	ErrDatesBlocked  = errors.New("booking: requested dates are blocked by the owner")
	ErrRangeConflict = errors.New("booking: requested range conflicts with an existing booking")
)

// DateBlockedError lists the owner-blocked calendar days inside the requested
// range.
type DateBlockedError struct {
	Dates []time.Time
}

func (e *DateBlockedError) Error() string {
	return fmt.Sprintf("booking: %d requested day(s) blocked by the owner", len(e.Dates))
}

func (e *DateBlockedError) Unwrap() error { return ErrDatesBlocked }

// DateConflictError lists the references of holding bookings that overlap the
// requested range.
type DateConflictError struct {
	References []string
}

func (e *DateConflictError) Error() string {
	return fmt.Sprintf("booking: range conflicts with %d existing booking(s)", len(e.References))
}

func (e *DateConflictError) Unwrap() error { return ErrRangeConflict }

// ConflictResolver answers whether a date range on a listing is free to book.
// Owner-blocked days are checked first, then holding bookings. It reports all
// offending days or references rather than just the first.
type ConflictResolver struct {
	bookings Repository
}

func NewConflictResolver(bookings Repository) *ConflictResolver {
	return &ConflictResolver{bookings: bookings}
}

// Check validates dr against the listing's blocked days and the holding
// bookings on the listing. exclude names a booking reference to skip, used
// when re-validating an extension of an existing booking.
func (r *ConflictResolver) Check(ctx context.Context, listing *listings.Listing, dr daterange.DateRange, exclude string) error {
	if err := dr.Validate(); err != nil {
		return err
	}

	var blocked []time.Time
	for _, day := range dr.CalendarDays() {
		if listing.Availability.Blocked(day) {
			blocked = append(blocked, day)
		}
	}
	if len(blocked) > 0 {
		return &DateBlockedError{Dates: blocked}
	}

	overlapping, err := r.bookings.FindOverlapping(ctx, listing.ID, dr, exclude)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		refs := make([]string, 0, len(overlapping))
		for _, b := range overlapping {
			refs = append(refs, b.Reference)
		}
		return &DateConflictError{References: refs}
	}
	return nil
}
