package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rentbazaar/internal/app/commands"
	"rentbazaar/internal/app/dto"
	"rentbazaar/internal/app/outbox"
	"rentbazaar/internal/app/uow"
	domainbooking "rentbazaar/internal/domain/booking"
	domainpricing "rentbazaar/internal/domain/pricing"
	domainrange "rentbazaar/internal/domain/shared/daterange"
)

const (
	requestExtensionKey = "booking.extension.request"
	decideExtensionKey  = "booking.extension.decide"
)

type RequestExtensionCommand struct {
	ExtensionID string
	Reference   string
	RenterID    string
	ProposedEnd time.Time
}

func (c RequestExtensionCommand) Key() string { return requestExtensionKey }

func (c RequestExtensionCommand) Validate() error {
	if strings.TrimSpace(c.ExtensionID) == "" {
		return errors.New("booking: extension id is required")
	}
	if strings.TrimSpace(c.Reference) == "" {
		return errors.New("booking: reference is required")
	}
	return nil
}

type ExtensionResult struct {
	Booking dto.BookingView `json:"booking"`
}

// RequestExtensionHandler prices the added segment from the booking's frozen
// breakdown and records a pending extension. Availability is only verified at
// approval time; the extended range may still be contested.
type RequestExtensionHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *RequestExtensionHandler) Handle(ctx context.Context, cmd RequestExtensionCommand) (*ExtensionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	b, err := unit.Bookings().ByReference(ctx, strings.TrimSpace(cmd.Reference))
	if err != nil {
		return nil, err
	}
	if b.RenterID != cmd.RenterID {
		return nil, domainbooking.ErrUnauthorizedTransition
	}
	if !cmd.ProposedEnd.After(b.Range.End) {
		return nil, domainbooking.ErrExtensionTooShort
	}

	segment, err := domainrange.New(b.Range.End, cmd.ProposedEnd)
	if err != nil {
		return nil, err
	}
	additional, err := domainpricing.ExtensionAmount(b.Price, segment)
	if err != nil {
		return nil, err
	}

	now := h.now()
	if _, err := b.RequestExtension(cmd.ExtensionID, cmd.ProposedEnd, additional, now); err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("extension requested",
			"reference", b.Reference,
			"extension_id", cmd.ExtensionID,
			"proposed_end", cmd.ProposedEnd,
			"additional", additional.Amount,
		)
	}
	return &ExtensionResult{Booking: dto.MapBooking(b, now)}, nil
}

type DecideExtensionCommand struct {
	Reference   string
	ExtensionID string
	OwnerID     string
	Approve     bool
}

func (c DecideExtensionCommand) Key() string { return decideExtensionKey }

// DecideExtensionHandler lets the owner approve or reject a pending
// extension. Approval re-runs the conflict check over the added segment
// before the end date moves; a later booking may have claimed those days.
type DecideExtensionHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *DecideExtensionHandler) Handle(ctx context.Context, cmd DecideExtensionCommand) (*ExtensionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}
	b, err := unit.Bookings().ByReference(ctx, strings.TrimSpace(cmd.Reference))
	if err != nil {
		return nil, err
	}
	if b.OwnerID != cmd.OwnerID {
		return nil, domainbooking.ErrUnauthorizedTransition
	}

	now := h.now()
	if cmd.Approve {
		req, err := b.Extension(cmd.ExtensionID)
		if err != nil {
			return nil, err
		}
		if req.Status != domainbooking.ExtensionPending {
			return nil, domainbooking.ErrExtensionDecided
		}
		segment, err := domainrange.New(b.Range.End, req.ProposedEnd)
		if err != nil {
			return nil, err
		}
		listing, err := unit.Listings().ByID(ctx, b.ListingID)
		if err != nil {
			return nil, err
		}
		resolver := domainbooking.NewConflictResolver(unit.Bookings())
		if err := resolver.Check(ctx, listing, segment, b.Reference); err != nil {
			return nil, err
		}
		if err := b.ApproveExtension(cmd.ExtensionID, now); err != nil {
			return nil, err
		}
	} else {
		if err := b.RejectExtension(cmd.ExtensionID, now); err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("extension decided",
			"reference", b.Reference,
			"extension_id", cmd.ExtensionID,
			"approved", cmd.Approve,
		)
	}
	return &ExtensionResult{Booking: dto.MapBooking(b, now)}, nil
}

func (h *RequestExtensionHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *DecideExtensionHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestExtensionCommand, *ExtensionResult] = (*RequestExtensionHandler)(nil)
var _ commands.Handler[DecideExtensionCommand, *ExtensionResult] = (*DecideExtensionHandler)(nil)
