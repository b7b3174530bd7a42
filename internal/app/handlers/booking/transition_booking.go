package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentbazaar/internal/app/commands"
	"rentbazaar/internal/app/dto"
	"rentbazaar/internal/app/outbox"
	"rentbazaar/internal/app/uow"
	domainbooking "rentbazaar/internal/domain/booking"
)

const transitionBookingKey = "booking.transition"

// TransitionBookingCommand is the single entry point for status changes. The
// target decides which aggregate method runs; the aggregate enforces
// reachability and the actor guards. Damage photos are uploaded beforehand
// through the photo endpoint and referenced here by URL.
type TransitionBookingCommand struct {
	Reference       string
	Target          string
	Actor           domainbooking.Actor
	Reason          string
	DamageNotes     string
	DamagePhotoURLs []string
}

func (c TransitionBookingCommand) Key() string { return transitionBookingKey }

func (c TransitionBookingCommand) Validate() error {
	if strings.TrimSpace(c.Reference) == "" {
		return errors.New("booking: reference is required")
	}
	if strings.TrimSpace(c.Target) == "" {
		return errors.New("booking: target status is required")
	}
	if strings.TrimSpace(c.Actor.ID) == "" {
		return errors.New("booking: actor id is required")
	}
	return nil
}

type TransitionBookingResult struct {
	Booking dto.BookingView `json:"booking"`
}

type TransitionBookingHandler struct {
	Logger  *slog.Logger
	Refunds domainbooking.RefundPolicy
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*TransitionBookingResult, error) {
	ref := strings.TrimSpace(cmd.Reference)
	if ref == "" {
		return nil, errors.New("booking reference is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkRequired
	}

	b, err := unit.Bookings().ByReference(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := h.now()
	switch domainbooking.Status(cmd.Target) {
	case domainbooking.StatusApproved:
		err = b.Approve(cmd.Actor, now)
	case domainbooking.StatusRejected:
		err = b.Reject(cmd.Actor, cmd.Reason, now)
	case domainbooking.StatusCancelled:
		err = b.Cancel(cmd.Actor, cmd.Reason, h.refunds(), now)
	case domainbooking.StatusInProgress:
		if err := h.requireParty(b, cmd.Actor); err != nil {
			return nil, err
		}
		err = b.ConfirmCheckIn(cmd.Actor.ID, now)
	case domainbooking.StatusCompleted:
		if err := h.requireParty(b, cmd.Actor); err != nil {
			return nil, err
		}
		err = b.ConfirmCheckOut(cmd.Actor.ID, buildDamageReport(cmd), now)
	default:
		return nil, fmt.Errorf("%w: %q", domainbooking.ErrInvalidTransition, cmd.Target)
	}
	if err != nil {
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
		h.Logger.Info("booking transitioned",
			"reference", b.Reference,
			"status", b.Status,
			"actor_id", cmd.Actor.ID,
			"actor_role", cmd.Actor.Role,
		)
	}

	return &TransitionBookingResult{Booking: dto.MapBooking(b, now)}, nil
}

// requireParty restricts check-in and check-out confirmation to the two
// booking parties or an admin.
func (h *TransitionBookingHandler) requireParty(b *domainbooking.Booking, actor domainbooking.Actor) error {
	if actor.ID == b.RenterID || actor.ID == b.OwnerID || actor.Role == domainbooking.RoleAdmin {
		return nil
	}
	return domainbooking.ErrUnauthorizedTransition
}

func buildDamageReport(cmd TransitionBookingCommand) *domainbooking.DamageReport {
	notes := strings.TrimSpace(cmd.DamageNotes)
	if notes == "" && len(cmd.DamagePhotoURLs) == 0 {
		return nil
	}
	return &domainbooking.DamageReport{
		Notes:     notes,
		PhotoURLs: append([]string(nil), cmd.DamagePhotoURLs...),
	}
}

func (h *TransitionBookingHandler) refunds() domainbooking.RefundPolicy {
	if h.Refunds != nil {
		return h.Refunds
	}
	return domainbooking.StandardRefundPolicy{}
}

func (h *TransitionBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[TransitionBookingCommand, *TransitionBookingResult] = (*TransitionBookingHandler)(nil)
