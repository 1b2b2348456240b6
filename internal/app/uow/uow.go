package uow

import (
	"context"

	domainbooking "carbooking/internal/domain/booking"
	domaincustomer "carbooking/internal/domain/customer"
	domainfleet "carbooking/internal/domain/fleet"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Vehicles() domainfleet.Repository
	Bookings() domainbooking.Repository
	Customers() domaincustomer.Repository

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

// CommitHooks is implemented by units that can defer side effects until a
// successful commit.
type CommitHooks interface {
	AfterCommit(fn func(ctx context.Context))
}
