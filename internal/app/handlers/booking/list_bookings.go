package booking

import (
	"context"
	"errors"
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
)

const (
	listRenterBookingsKey = "bookings.renter.list"
	listOwnerBookingsKey  = "bookings.owner.list"
	getBookingKey         = "bookings.get"
	allStatusesFilter     = "all"
)

var ErrBookingAccessDenied = errors.New("booking: access denied")

type ListRenterBookingsQuery struct {
	RenterID string
	Status   string
}

func (q ListRenterBookingsQuery) Key() string { return listRenterBookingsKey }

type ListRenterBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ListRenterBookingsHandler) Handle(ctx context.Context, q ListRenterBookingsQuery) (dto.BookingCollection, error) {
	renterID := strings.TrimSpace(q.RenterID)
	if renterID == "" {
		return dto.BookingCollection{}, errors.New("renter id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByRenter(execCtx, renterID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	now := nowOrDefault(h.Now)
	items := filterAndMap(bookings, q.Status, now)

	if h.Logger != nil {
		h.Logger.Debug("renter bookings listed", "renter_id", renterID, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

type ListOwnerBookingsQuery struct {
	OwnerID string
	Status  string
}

func (q ListOwnerBookingsQuery) Key() string { return listOwnerBookingsKey }

type ListOwnerBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ListOwnerBookingsHandler) Handle(ctx context.Context, q ListOwnerBookingsQuery) (dto.BookingCollection, error) {
	ownerID := strings.TrimSpace(q.OwnerID)
	if ownerID == "" {
		return dto.BookingCollection{}, errors.New("owner id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	owned, err := unit.Listings().ListByOwner(execCtx, domainlistings.OwnerID(ownerID))
	if err != nil {
		return dto.BookingCollection{}, err
	}

	var bookings []*domainbooking.Booking
	for _, listing := range owned {
		forListing, err := unit.Bookings().ListByListing(execCtx, listing.ID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		bookings = append(bookings, forListing...)
	}
	now := nowOrDefault(h.Now)
	items := filterAndMap(bookings, q.Status, now)

	if h.Logger != nil {
		h.Logger.Debug("owner bookings listed", "owner_id", ownerID, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

type GetBookingQuery struct {
	Reference string
	Actor     domainbooking.Actor
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByReference(execCtx, strings.TrimSpace(q.Reference))
	if err != nil {
		return dto.BookingView{}, err
	}
	if q.Actor.ID != b.RenterID && q.Actor.ID != b.OwnerID && q.Actor.Role != domainbooking.RoleAdmin {
		return dto.BookingView{}, ErrBookingAccessDenied
	}
	return dto.MapBooking(b, nowOrDefault(h.Now)), nil
}

func filterAndMap(bookings []*domainbooking.Booking, status string, now time.Time) []dto.BookingView {
	filter := strings.ToLower(strings.TrimSpace(status))
	all := filter == "" || filter == allStatusesFilter
	items := make([]dto.BookingView, 0, len(bookings))
	for _, b := range bookings {
		if !all && string(b.Status) != filter {
			continue
		}
		items = append(items, dto.MapBooking(b, now))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func nowOrDefault(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[ListRenterBookingsQuery, dto.BookingCollection] = (*ListRenterBookingsHandler)(nil)
var _ queries.Handler[ListOwnerBookingsQuery, dto.BookingCollection] = (*ListOwnerBookingsHandler)(nil)
var _ queries.Handler[GetBookingQuery, dto.BookingView] = (*GetBookingHandler)(nil)
