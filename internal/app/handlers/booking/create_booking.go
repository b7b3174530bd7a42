package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rentbazaar/internal/app/commands"
	"rentbazaar/internal/app/dto"
	"rentbazaar/internal/app/middleware"
	"rentbazaar/internal/app/outbox"
	"rentbazaar/internal/app/uow"
	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	domainrange "rentbazaar/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// CreateBookingCommand requests a new booking. The CommandID doubles as the
// booking reference so retries with the same idempotency key return the same
// booking.
type CreateBookingCommand struct {
	CommandID       string
	ListingID       string
	RenterID        string
	StartDate       time.Time
	EndDate         time.Time
	PriceType       string
	Message         string
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) Validate() error {
	if strings.TrimSpace(c.CommandID) == "" {
		return errors.New("booking: command id is required")
	}
	if strings.TrimSpace(c.ListingID) == "" {
		return errors.New("booking: listing id is required")
	}
	if strings.TrimSpace(c.RenterID) == "" {
		return errors.New("booking: renter id is required")
	}
	return nil
}

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	Booking dto.BookingView `json:"booking"`
}

// CreateBookingHandler runs the conflict check and the insert inside one unit
// of work. The transaction middleware supplies the unit, so two concurrent
// requests for overlapping ranges cannot both commit.
type CreateBookingHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	if strings.TrimSpace(cmd.RenterID) == "" {
		return nil, errors.New("renter id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}

	dr, err := domainrange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := domainbooking.ValidateWindow(dr, now); err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.State != domainlistings.ListingActive {
		return nil, domainlistings.ErrNotActive
	}

	resolver := domainbooking.NewConflictResolver(unit.Bookings())
	if err := resolver.Check(ctx, listing, dr, ""); err != nil {
		return nil, err
	}

	price, err := domainpricing.Calculate(listing.Rates, listing.Policies.Deposit, dr, domainpricing.PriceType(cmd.PriceType))
	if err != nil {
		return nil, err
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		Reference: cmd.CommandID,
		ListingID: listing.ID,
		RenterID:  cmd.RenterID,
		OwnerID:   string(listing.Owner),
		Range:     dr,
		Price:     price,
		Message:   strings.TrimSpace(cmd.Message),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := h.drainEvents(ctx, booking); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested",
			"reference", booking.Reference,
			"listing_id", booking.ListingID,
			"renter_id", booking.RenterID,
			"price_type", booking.Price.PriceType,
			"total", booking.Price.Total.Amount,
		)
	}

	return &CreateBookingResult{Booking: dto.MapBooking(booking, now)}, nil
}

func (h *CreateBookingHandler) drainEvents(ctx context.Context, b *domainbooking.Booking) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending)
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
