package listings

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
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	"rentbazaar/internal/domain/shared/money"
)

const (
	createListingKey      = "listings.create"
	activateListingKey    = "listings.activate"
	suspendListingKey     = "listings.suspend"
	updateListingRatesKey = "listings.rates.update"
	blockDatesKey         = "listings.dates.block"
	unblockDatesKey       = "listings.dates.unblock"
)

var ErrListingNotOwned = errors.New("listings: not owned by caller")

type RateCardInput struct {
	Hourly  int64
	Daily   int64
	Weekly  int64
	Monthly int64
}

func (in RateCardInput) toDomain(currency string) pricingCard {
	mk := func(amount int64) money.Money {
		if amount <= 0 {
			return money.Money{}
		}
		return money.Money{Amount: amount, Currency: currency}
	}
	return pricingCard{
		Hourly:  mk(in.Hourly),
		Daily:   mk(in.Daily),
		Weekly:  mk(in.Weekly),
		Monthly: mk(in.Monthly),
	}
}

type pricingCard = domainpricing.RateCard

type CreateListingCommand struct {
	CommandID   string
	OwnerID     string
	Title       string
	Description string
	Category    string
	City        string
	Currency    string
	Rates       RateCardInput
	Deposit     int64
}

func (c CreateListingCommand) Key() string { return createListingKey }

type ListingResult struct {
	Listing dto.ListingView `json:"listing"`
}

type CreateListingHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*ListingResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if len(currency) != 3 {
		return nil, money.ErrInvalidCurrency
	}
	deposit := money.Money{Currency: currency}
	if cmd.Deposit > 0 {
		deposit.Amount = cmd.Deposit
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(cmd.CommandID),
		Owner:       domainlistings.OwnerID(cmd.OwnerID),
		Title:       cmd.Title,
		Description: cmd.Description,
		Category:    cmd.Category,
		City:        cmd.City,
		Rates:       cmd.Rates.toDomain(currency),
		Deposit:     deposit,
		Now:         nowOrDefault(h.Now),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "owner_id", listing.Owner)
	}
	return &ListingResult{Listing: dto.MapListing(listing)}, nil
}

type ActivateListingCommand struct {
	ListingID string
	OwnerID   string
}

func (c ActivateListingCommand) Key() string { return activateListingKey }

type ActivateListingHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *ActivateListingHandler) Handle(ctx context.Context, cmd ActivateListingCommand) (*ListingResult, error) {
	listing, unit, err := ownedListing(ctx, cmd.ListingID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := listing.Activate(nowOrDefault(h.Now)); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing activated", "listing_id", listing.ID)
	}
	return &ListingResult{Listing: dto.MapListing(listing)}, nil
}

type SuspendListingCommand struct {
	ListingID string
	OwnerID   string
	Reason    string
}

func (c SuspendListingCommand) Key() string { return suspendListingKey }

type SuspendListingHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *SuspendListingHandler) Handle(ctx context.Context, cmd SuspendListingCommand) (*ListingResult, error) {
	listing, unit, err := ownedListing(ctx, cmd.ListingID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := listing.Suspend(cmd.Reason, nowOrDefault(h.Now)); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing suspended", "listing_id", listing.ID, "reason", cmd.Reason)
	}
	return &ListingResult{Listing: dto.MapListing(listing)}, nil
}

type UpdateListingRatesCommand struct {
	ListingID string
	OwnerID   string
	Currency  string
	Rates     RateCardInput
	Deposit   int64
}

func (c UpdateListingRatesCommand) Key() string { return updateListingRatesKey }

// UpdateListingRatesHandler replaces the rate card. Bookings already created
// keep their frozen snapshots; only new quotes see the change.
type UpdateListingRatesHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *UpdateListingRatesHandler) Handle(ctx context.Context, cmd UpdateListingRatesCommand) (*ListingResult, error) {
	listing, unit, err := ownedListing(ctx, cmd.ListingID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if len(currency) != 3 {
		return nil, money.ErrInvalidCurrency
	}
	deposit := money.Money{Currency: currency}
	if cmd.Deposit > 0 {
		deposit.Amount = cmd.Deposit
	}
	if err := listing.UpdateRates(cmd.Rates.toDomain(currency), deposit, nowOrDefault(h.Now)); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing rates updated", "listing_id", listing.ID)
	}
	return &ListingResult{Listing: dto.MapListing(listing)}, nil
}

type BlockDatesCommand struct {
	ListingID string
	OwnerID   string
	Dates     []time.Time
	Unblock   bool
}

func (c BlockDatesCommand) Key() string {
	if c.Unblock {
		return unblockDatesKey
	}
	return blockDatesKey
}

type BlockDatesHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (*ListingResult, error) {
	if len(cmd.Dates) == 0 {
		return nil, errors.New("listings: at least one date required")
	}
	listing, unit, err := ownedListing(ctx, cmd.ListingID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	now := nowOrDefault(h.Now)
	if cmd.Unblock {
		listing.UnblockDates(cmd.Dates, now)
	} else {
		listing.BlockDates(cmd.Dates, now)
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing calendar updated", "listing_id", listing.ID, "dates", len(cmd.Dates), "unblock", cmd.Unblock)
	}
	return &ListingResult{Listing: dto.MapListing(listing)}, nil
}

func ownedListing(ctx context.Context, listingID, ownerID string) (*domainlistings.Listing, uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, nil, uow.ErrUnitOfWorkMissing
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, nil, err
	}
	if listing.Owner != domainlistings.OwnerID(ownerID) {
		return nil, nil, ErrListingNotOwned
	}
	return listing, unit, nil
}

func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, l *domainlistings.Listing) error {
	pending := l.PendingEvents()
	l.ClearEvents()
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}

func nowOrDefault(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateListingCommand, *ListingResult] = (*CreateListingHandler)(nil)
var _ commands.Handler[ActivateListingCommand, *ListingResult] = (*ActivateListingHandler)(nil)
var _ commands.Handler[SuspendListingCommand, *ListingResult] = (*SuspendListingHandler)(nil)
var _ commands.Handler[UpdateListingRatesCommand, *ListingResult] = (*UpdateListingRatesHandler)(nil)
var _ commands.Handler[BlockDatesCommand, *ListingResult] = (*BlockDatesHandler)(nil)
