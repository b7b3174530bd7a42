package booking

import (
	"context"
	"errors"
	"time"

	"rentbazaar/internal/domain/listings"
	"rentbazaar/internal/domain/pricing"
	"rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/events"
	"rentbazaar/internal/domain/shared/money"
)

var (
	ErrBookingNotFound        = errors.New("booking: not found")
	ErrSelfBooking            = errors.New("booking: renter and owner must differ")
	ErrInvalidTransition      = errors.New("booking: status not reachable from current status")
	ErrUnauthorizedTransition = errors.New("booking: actor may not perform this transition")
	ErrExtensionNotFound      = errors.New("booking: extension request not found")
	ErrExtensionDecided       = errors.New("booking: extension request already decided")
	ErrExtensionTooShort      = errors.New("booking: proposed end must extend the booking")
	ErrZeroTotal              = errors.New("booking: total must be positive")
	ErrStartInPast            = errors.New("booking: start date is in the past")
)

// ValidateWindow rejects ranges starting before the current calendar day.
// Same-day starts are allowed.
func ValidateWindow(dr daterange.DateRange, now time.Time) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	if dr.Start.Before(daterange.DayOf(now)) {
		return ErrStartInPast
	}
	return nil
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusOverdue    Status = "overdue"
)

// HoldingStatuses are the statuses that count toward conflict detection. A
// pending booking already holds its range: two renters cannot race each other
// while the owner is still deciding.
func HoldingStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusInProgress}
}

func IsHolding(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusInProgress:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// Actor identifies who requests a transition. Authentication is an external
// concern; the aggregate only checks the party/role against its guards.
type Actor struct {
	ID   string
	Role Role
}

type RefundStatus string

const (
	RefundNotApplicable RefundStatus = "not_applicable"
	RefundPending       RefundStatus = "pending"
	RefundProcessed     RefundStatus = "processed"
)

// CancellationRecord is populated exactly once, when the booking is cancelled.
type CancellationRecord struct {
	By           Actor
	Reason       string
	RefundAmount money.Money
	RefundStatus RefundStatus
	At           time.Time
}

type ExtensionStatus string

const (
	ExtensionPending  ExtensionStatus = "pending"
	ExtensionApproved ExtensionStatus = "approved"
	ExtensionRejected ExtensionStatus = "rejected"
)

// ExtensionRequest proposes a later end date. Approval mutates the parent
// booking's range and total.
type ExtensionRequest struct {
	ID               string
	ProposedEnd      time.Time
	AdditionalAmount money.Money
	Status           ExtensionStatus
	RequestedAt      time.Time
	DecidedAt        time.Time
}

// DamageReport is an optional part of the check-out record.
type DamageReport struct {
	Notes     string
	PhotoURLs []string
}

// CheckRecord captures scheduled vs actual check-in/check-out times.
type CheckRecord struct {
	ScheduledAt time.Time
	ActualAt    time.Time
	ConfirmedBy string
	Damage      *DamageReport
}

// Booking is the aggregate root for a reservation of a listing over a date
// range at a price frozen at creation time.
type Booking struct {
	Reference    string
	ListingID    listings.ListingID
	RenterID     string
	OwnerID      string
	Range        daterange.DateRange
	Price        pricing.Breakdown
	Status       Status
	Payment      PaymentStatus
	Message      string
	Cancellation *CancellationRecord
	Extensions   []ExtensionRequest
	CheckIn      *CheckRecord
	CheckOut     *CheckRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByReference(ctx context.Context, ref string) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
	ListByListing(ctx context.Context, id listings.ListingID) ([]*Booking, error)
	// FindOverlapping returns bookings for the listing whose status is in the
	// holding set and whose range intersects dr (endpoints inclusive),
	// excluding the booking with the given reference when non-empty.
	FindOverlapping(ctx context.Context, id listings.ListingID, dr daterange.DateRange, exclude string) ([]*Booking, error)
	// ListHoldingEndedBefore returns approved or in-progress bookings whose
	// end date has passed the cutoff; input to the overdue sweep.
	ListHoldingEndedBefore(ctx context.Context, cutoff time.Time) ([]*Booking, error)
}

type CreateParams struct {
	Reference string
	ListingID listings.ListingID
	RenterID  string
	OwnerID   string
	Range     daterange.DateRange
	Price     pricing.Breakdown
	Message   string
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.Reference == "" {
		return nil, errors.New("booking: reference required")
	}
	if params.RenterID == "" {
		return nil, errors.New("booking: renter id required")
	}
	if params.RenterID == params.OwnerID {
		return nil, ErrSelfBooking
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if !params.Price.Total.IsPositive() {
		return nil, ErrZeroTotal
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		Reference: params.Reference,
		ListingID: params.ListingID,
		RenterID:  params.RenterID,
		OwnerID:   params.OwnerID,
		Range:     params.Range,
		Price:     params.Price.Copy(),
		Status:    StatusPending,
		Payment:   PaymentPending,
		Message:   params.Message,
		CheckIn:   &CheckRecord{ScheduledAt: params.Range.Start},
		CheckOut:  &CheckRecord{ScheduledAt: params.Range.End},
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{Reference: b.Reference, ListingID: b.ListingID, RenterID: b.RenterID, Range: b.Range, Total: b.Price.Total, At: now})
	return b, nil
}

// reachable encodes the transition table. Terminal statuses have no exits.
func reachable(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusInProgress || to == StatusCancelled || to == StatusOverdue
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled || to == StatusOverdue
	case StatusOverdue:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

// CanTransition reports whether to is reachable from the current status.
func (b *Booking) CanTransition(to Status) bool {
	return reachable(b.Status, to)
}

// Approve moves pending to approved. Only the owner party may approve.
func (b *Booking) Approve(actor Actor, now time.Time) error {
	if actor.ID != b.OwnerID && actor.Role != RoleAdmin {
		return ErrUnauthorizedTransition
	}
	if !reachable(b.Status, StatusApproved) {
		return ErrInvalidTransition
	}
	b.Status = StatusApproved
	b.touch(now)
	b.Record(BookingApproved{Reference: b.Reference, At: b.UpdatedAt})
	return nil
}

// Reject moves pending to rejected. Only the owner party may reject. The held
// range is not automatically re-offered to earlier conflicting requests.
func (b *Booking) Reject(actor Actor, reason string, now time.Time) error {
	if actor.ID != b.OwnerID && actor.Role != RoleAdmin {
		return ErrUnauthorizedTransition
	}
	if !reachable(b.Status, StatusRejected) {
		return ErrInvalidTransition
	}
	b.Status = StatusRejected
	b.touch(now)
	b.Record(BookingRejected{Reference: b.Reference, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel moves a holding booking to cancelled. The renter may cancel before
// check-in; once in progress (or overdue) only an admin may cancel. When the
// booking is paid the refund entitlement is computed from the time remaining
// until the start date; moving the money is the payment collaborator's job.
func (b *Booking) Cancel(actor Actor, reason string, policy RefundPolicy, now time.Time) error {
	if !reachable(b.Status, StatusCancelled) {
		return ErrInvalidTransition
	}
	switch b.Status {
	case StatusPending, StatusApproved:
		if actor.ID != b.RenterID && actor.Role != RoleAdmin {
			return ErrUnauthorizedTransition
		}
	default:
		if actor.Role != RoleAdmin {
			return ErrUnauthorizedTransition
		}
	}

	record := CancellationRecord{
		By:           actor,
		Reason:       reason,
		RefundAmount: money.Money{Currency: b.Price.Total.Currency},
		RefundStatus: RefundNotApplicable,
		At:           now.UTC(),
	}
	if b.Payment == PaymentPaid {
		record.RefundAmount, record.RefundStatus = policy.RefundFor(b.Price.Total, now, b.Range.Start)
	}

	b.Status = StatusCancelled
	b.Cancellation = &record
	b.touch(now)
	b.Record(BookingCancelled{Reference: b.Reference, By: actor, Reason: reason, Refund: record.RefundAmount, RefundStatus: record.RefundStatus, At: b.UpdatedAt})
	return nil
}

// ConfirmCheckIn moves approved to in_progress.
func (b *Booking) ConfirmCheckIn(confirmedBy string, now time.Time) error {
	if !reachable(b.Status, StatusInProgress) {
		return ErrInvalidTransition
	}
	b.Status = StatusInProgress
	b.CheckIn.ActualAt = now.UTC()
	b.CheckIn.ConfirmedBy = confirmedBy
	b.touch(now)
	b.Record(BookingCheckedIn{Reference: b.Reference, At: b.UpdatedAt})
	return nil
}

// ConfirmCheckOut moves in_progress (or overdue) to completed, optionally
// attaching a damage report.
func (b *Booking) ConfirmCheckOut(confirmedBy string, damage *DamageReport, now time.Time) error {
	if !reachable(b.Status, StatusCompleted) {
		return ErrInvalidTransition
	}
	b.Status = StatusCompleted
	b.CheckOut.ActualAt = now.UTC()
	b.CheckOut.ConfirmedBy = confirmedBy
	b.CheckOut.Damage = damage
	b.touch(now)
	b.Record(BookingCheckedOut{Reference: b.Reference, Damaged: damage != nil, At: b.UpdatedAt})
	return nil
}

// IsOverdue reports whether the booking holds a range whose end has passed
// without a confirmed check-out. Computed on read; MarkOverdue materializes it.
func (b *Booking) IsOverdue(now time.Time) bool {
	if b.Status != StatusApproved && b.Status != StatusInProgress {
		return false
	}
	return b.Range.End.Before(now.UTC())
}

// MarkOverdue materializes the derived overdue state; used by the periodic
// sweep.
func (b *Booking) MarkOverdue(now time.Time) error {
	if !b.IsOverdue(now) {
		return ErrInvalidTransition
	}
	b.Status = StatusOverdue
	b.touch(now)
	b.Record(BookingMarkedOverdue{Reference: b.Reference, EndDate: b.Range.End, At: b.UpdatedAt})
	return nil
}

// SetPaymentStatus updates the payment state, which evolves independently of
// the booking status.
func (b *Booking) SetPaymentStatus(status PaymentStatus, now time.Time) {
	b.Payment = status
	b.touch(now)
}

// RequestExtension appends a pending end-date change. The additional amount
// is priced by the caller from the frozen breakdown.
func (b *Booking) RequestExtension(id string, proposedEnd time.Time, additional money.Money, now time.Time) (*ExtensionRequest, error) {
	if b.Status != StatusApproved && b.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}
	if !proposedEnd.After(b.Range.End) {
		return nil, ErrExtensionTooShort
	}
	req := ExtensionRequest{
		ID:               id,
		ProposedEnd:      proposedEnd.UTC(),
		AdditionalAmount: additional,
		Status:           ExtensionPending,
		RequestedAt:      now.UTC(),
	}
	b.Extensions = append(b.Extensions, req)
	b.touch(now)
	b.Record(ExtensionRequested{Reference: b.Reference, ExtensionID: id, ProposedEnd: req.ProposedEnd, Additional: additional, At: b.UpdatedAt})
	return &b.Extensions[len(b.Extensions)-1], nil
}

// Extension returns the extension request with the given id.
func (b *Booking) Extension(id string) (*ExtensionRequest, error) {
	for i := range b.Extensions {
		if b.Extensions[i].ID == id {
			return &b.Extensions[i], nil
		}
	}
	return nil, ErrExtensionNotFound
}

// ApproveExtension moves the booking's end date to the proposed one and adds
// the additional amount to the total. The original subtotal and service fee
// are untouched. The caller must have re-checked the extended range for
// conflicts before approving.
func (b *Booking) ApproveExtension(id string, now time.Time) error {
	req, err := b.Extension(id)
	if err != nil {
		return err
	}
	if req.Status != ExtensionPending {
		return ErrExtensionDecided
	}
	total, err := b.Price.Total.Add(req.AdditionalAmount)
	if err != nil {
		return err
	}
	b.Price.Total = total
	b.Price.AdditionalFees = append(b.Price.AdditionalFees, pricing.Fee{Name: "extension", Amount: req.AdditionalAmount})
	b.Range.End = req.ProposedEnd
	b.CheckOut.ScheduledAt = req.ProposedEnd
	req.Status = ExtensionApproved
	req.DecidedAt = now.UTC()
	b.touch(now)
	b.Record(ExtensionDecided{Reference: b.Reference, ExtensionID: id, Approved: true, NewEnd: req.ProposedEnd, At: b.UpdatedAt})
	return nil
}

// RejectExtension declines a pending extension request.
func (b *Booking) RejectExtension(id string, now time.Time) error {
	req, err := b.Extension(id)
	if err != nil {
		return err
	}
	if req.Status != ExtensionPending {
		return ErrExtensionDecided
	}
	req.Status = ExtensionRejected
	req.DecidedAt = now.UTC()
	b.touch(now)
	b.Record(ExtensionDecided{Reference: b.Reference, ExtensionID: id, Approved: false, At: b.UpdatedAt})
	return nil
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}
