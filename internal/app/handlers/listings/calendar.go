package listings

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"rentbazaar/internal/app/dto"
	handlersupport "rentbazaar/internal/app/handlers/support"
	"rentbazaar/internal/app/queries"
	"rentbazaar/internal/app/uow"
	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	domainrange "rentbazaar/internal/domain/shared/daterange"
)

const (
	listingCalendarKey = "listings.calendar"
	listingQuoteKey    = "listings.quote"
	listOwnerListings  = "listings.owner.list"
)

type CalendarQuery struct {
	ListingID string
}

func (q CalendarQuery) Key() string { return listingCalendarKey }

// CalendarHandler merges owner-blocked days with holding booking ranges so a
// renter can see what is takeable before requesting.
type CalendarHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *CalendarHandler) Handle(ctx context.Context, q CalendarQuery) (dto.CalendarView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.CalendarView{}, err
	}
	bookings, err := unit.Bookings().ListByListing(execCtx, listing.ID)
	if err != nil {
		return dto.CalendarView{}, err
	}

	view := dto.CalendarView{
		ListingID:    string(listing.ID),
		BlockedDates: append([]time.Time(nil), listing.Availability.BlockedDates...),
		BookedRanges: make([]dto.BookedRangeView, 0),
	}
	for _, b := range bookings {
		if !domainbooking.IsHolding(b.Status) && b.Status != domainbooking.StatusOverdue {
			continue
		}
		view.BookedRanges = append(view.BookedRanges, dto.BookedRangeView{
			Reference: b.Reference,
			StartDate: b.Range.Start,
			EndDate:   b.Range.End,
			Status:    string(b.Status),
		})
	}
	sort.Slice(view.BookedRanges, func(i, j int) bool {
		return view.BookedRanges[i].StartDate.Before(view.BookedRanges[j].StartDate)
	})
	return view, nil
}

type QuoteQuery struct {
	ListingID string
	StartDate time.Time
	EndDate   time.Time
	PriceType string
}

func (q QuoteQuery) Key() string { return listingQuoteKey }

// QuoteHandler prices a prospective range without reserving anything.
type QuoteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.QuoteView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.QuoteView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.QuoteView{}, err
	}
	dr, err := domainrange.New(q.StartDate, q.EndDate)
	if err != nil {
		return dto.QuoteView{}, err
	}
	price, err := domainpricing.Calculate(listing.Rates, listing.Policies.Deposit, dr, domainpricing.PriceType(q.PriceType))
	if err != nil {
		return dto.QuoteView{}, err
	}
	return dto.QuoteView{
		ListingID: string(listing.ID),
		StartDate: dr.Start,
		EndDate:   dr.End,
		Price:     dto.MapBreakdown(price),
	}, nil
}

type ListOwnerListingsQuery struct {
	OwnerID string
}

func (q ListOwnerListingsQuery) Key() string { return listOwnerListings }

type ListOwnerListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerListingsHandler) Handle(ctx context.Context, q ListOwnerListingsQuery) (dto.ListingCollection, error) {
	ownerID := strings.TrimSpace(q.OwnerID)
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	owned, err := unit.Listings().ListByOwner(execCtx, domainlistings.OwnerID(ownerID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	items := make([]dto.ListingView, 0, len(owned))
	for _, l := range owned {
		items = append(items, dto.MapListing(l))
	}
	return dto.ListingCollection{Items: items}, nil
}

var _ queries.Handler[CalendarQuery, dto.CalendarView] = (*CalendarHandler)(nil)
var _ queries.Handler[QuoteQuery, dto.QuoteView] = (*QuoteHandler)(nil)
var _ queries.Handler[ListOwnerListingsQuery, dto.ListingCollection] = (*ListOwnerListingsHandler)(nil)
