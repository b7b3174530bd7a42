package uow

import (
	"context"

	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// conflict check and the booking insert share the same unit so concurrent
// requests for the same range cannot both pass.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
