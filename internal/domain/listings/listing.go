package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentbazaar/internal/domain/pricing"
	"rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/events"
	"rentbazaar/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrOwnerRequired   = errors.New("listings: owner is required")
	ErrNegativeRate    = errors.New("listings: rates must be non-negative")
	ErrNotActive       = errors.New("listings: listing is not active")
	ErrInvalidState    = errors.New("listings: invalid state transition")
)

type ListingID string
type OwnerID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Availability holds owner-blocked calendar days. Booked ranges are derived
// from the booking store, not duplicated here.
type Availability struct {
	BlockedDates []time.Time
}

// Blocked reports whether the given calendar day is blocked by the owner.
func (a Availability) Blocked(day time.Time) bool {
	for _, d := range a.BlockedDates {
		if daterange.SameDay(d, day) {
			return true
		}
	}
	return false
}

// Policies carries listing-level booking policy inputs. The deposit is
// collected and returned outside the booking total.
type Policies struct {
	Deposit money.Money
}

type Listing struct {
	ID           ListingID
	Owner        OwnerID
	Title        string
	Description  string
	Category     string
	City         string
	Rates        pricing.RateCard
	Availability Availability
	Policies     Policies
	State        ListingState
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ListByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
}

type CreateParams struct {
	ID          ListingID
	Owner       OwnerID
	Title       string
	Description string
	Category    string
	City        string
	Rates       pricing.RateCard
	Deposit     money.Money
	Now         time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if err := validateRates(params.Rates); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:          params.ID,
		Owner:       params.Owner,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Category:    strings.TrimSpace(params.Category),
		City:        strings.TrimSpace(params.City),
		Rates:       params.Rates,
		Policies:    Policies{Deposit: params.Deposit},
		State:       ListingDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.Record(ListingCreatedEvent{ListingID: l.ID, Owner: l.Owner, At: now})
	return l, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if l.Rates.Empty() {
		return pricing.ErrNoPricingAvailable
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingActivatedEvent{ListingID: l.ID, Owner: l.Owner, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Suspend(reason string, now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

// UpdateRates replaces the rate card. Existing bookings keep their frozen
// price snapshots.
func (l *Listing) UpdateRates(rates pricing.RateCard, deposit money.Money, now time.Time) error {
	if err := validateRates(rates); err != nil {
		return err
	}
	l.Rates = rates
	l.Policies.Deposit = deposit
	l.UpdatedAt = now.UTC()
	l.Record(ListingRatesUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// BlockDates adds calendar days to the blocked set, deduplicating by day.
func (l *Listing) BlockDates(dates []time.Time, now time.Time) {
	for _, d := range dates {
		day := daterange.DayOf(d)
		if !l.Availability.Blocked(day) {
			l.Availability.BlockedDates = append(l.Availability.BlockedDates, day)
		}
	}
	l.UpdatedAt = now.UTC()
	l.Record(ListingDatesBlockedEvent{ListingID: l.ID, Dates: dates, At: l.UpdatedAt})
}

// UnblockDates removes calendar days from the blocked set.
func (l *Listing) UnblockDates(dates []time.Time, now time.Time) {
	kept := l.Availability.BlockedDates[:0]
	for _, existing := range l.Availability.BlockedDates {
		remove := false
		for _, d := range dates {
			if daterange.SameDay(existing, d) {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, existing)
		}
	}
	l.Availability.BlockedDates = kept
	l.UpdatedAt = now.UTC()
}

func validateRates(rates pricing.RateCard) error {
	for _, rate := range []money.Money{rates.Hourly, rates.Daily, rates.Weekly, rates.Monthly} {
		if rate.Amount < 0 {
			return ErrNegativeRate
		}
	}
	return nil
}
