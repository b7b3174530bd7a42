package memory

import (
	"context"
	"errors"
	"sync"

	"rentbazaar/internal/app/uow"
	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary. Write
// units are serialized on a single mutex so a conflict check and the insert
// behind it cannot interleave with another request, mirroring what the mongo
// factory gets from real transactions.
type Factory struct {
	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository

	writeMu sync.Mutex
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.BookingRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{
		listings: f.ListingsRepo,
		bookings: f.BookingRepo,
	}
	if !opts.ReadOnly {
		f.writeMu.Lock()
		unit.release = f.writeMu.Unlock
	}
	return unit, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores. Writes
// apply immediately; Commit and Rollback only release the write lock.
type Unit struct {
	listings domainlistings.Repository
	bookings domainbooking.Repository

	releaseOnce sync.Once
	release     func()
}

func (u *Unit) Listings() domainlistings.Repository {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Commit(ctx context.Context) error {
	u.unlock()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.unlock()
	return nil
}

func (u *Unit) unlock() {
	u.releaseOnce.Do(func() {
		if u.release != nil {
			u.release()
		}
	})
}
