package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
	domainrange "rentbazaar/internal/domain/shared/daterange"
)

// ListingRepository is an in-memory implementation for demo and test runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return listing, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.Version++
	r.items[listing.ID] = listing
	return nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.Owner == owner {
			matches = append(matches, listing)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

// BookingRepository stores bookings in memory keyed by reference.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[string]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[string]*domainbooking.Booking)}
}

func (r *BookingRepository) ByReference(ctx context.Context, ref string) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[ref]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return booking, nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.Reference] = booking
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	id := strings.TrimSpace(renterID)
	if id == "" {
		return nil, errors.New("memory: renter id required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.RenterID == id {
			matches = append(matches, booking)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.ListingID == id {
			matches = append(matches, booking)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) FindOverlapping(ctx context.Context, id domainlistings.ListingID, dr domainrange.DateRange, exclude string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.ListingID != id || booking.Reference == exclude {
			continue
		}
		if !domainbooking.IsHolding(booking.Status) {
			continue
		}
		if booking.Range.Overlaps(dr) {
			matches = append(matches, booking)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *BookingRepository) ListHoldingEndedBefore(ctx context.Context, cutoff time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.Status != domainbooking.StatusApproved && booking.Status != domainbooking.StatusInProgress {
			continue
		}
		if booking.Range.End.Before(cutoff) {
			matches = append(matches, booking)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func sortByCreated(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
