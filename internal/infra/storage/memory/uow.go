package memory

import (
	"context"
	"errors"
	"sync"

	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	domaincustomer "carbooking/internal/domain/customer"
	domainfleet "carbooking/internal/domain/fleet"
)

var (
	// ErrFactoryMisconfigured indicates a factory without a store.
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrReadOnly             = errors.New("memory: write in a read-only unit of work")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
)

// Factory opens units of work over a Store.
type Factory struct {
	Store *Store
}

// Begin opens a unit. Write units wait for the store's write slot, so at most
// one read-modify-write runs at a time; their changes stay staged until Commit.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{store: f.Store, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return u, nil
	}
	select {
	case f.Store.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	u.staged = newStaging()
	return u, nil
}

type staging struct {
	vehicles  map[domainfleet.VehicleID]*domainfleet.Vehicle
	bookings  map[domainbooking.BookingID]*domainbooking.Booking
	customers map[domaincustomer.ID]*domaincustomer.Customer
}

func newStaging() *staging {
	return &staging{
		vehicles:  make(map[domainfleet.VehicleID]*domainfleet.Vehicle),
		bookings:  make(map[domainbooking.BookingID]*domainbooking.Booking),
		customers: make(map[domaincustomer.ID]*domaincustomer.Customer),
	}
}

// Unit is a uow.UnitOfWork over the in-memory store.
type Unit struct {
	store    *Store
	readOnly bool
	staged   *staging

	mu    sync.Mutex
	hooks []func(context.Context)
	done  bool
}

func (u *Unit) Vehicles() domainfleet.Repository { return vehicleRepository{u: u} }

func (u *Unit) Bookings() domainbooking.Repository { return bookingRepository{u: u} }

func (u *Unit) Customers() domaincustomer.Repository { return customerRepository{u: u} }

// AfterCommit registers fn to run once the staged changes are visible.
func (u *Unit) AfterCommit(fn func(ctx context.Context)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hooks = append(u.hooks, fn)
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	u.done = true
	hooks := u.hooks
	u.hooks = nil
	u.mu.Unlock()

	if !u.readOnly {
		u.store.mu.Lock()
		for id, v := range u.staged.vehicles {
			u.store.vehicles[id] = v
		}
		for id, b := range u.staged.bookings {
			u.store.bookings[id] = b
		}
		for id, c := range u.staged.customers {
			u.store.customers[id] = c
		}
		u.store.mu.Unlock()
		<-u.store.writer
	}
	for _, fn := range hooks {
		fn(ctx)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	u.hooks = nil
	if !u.readOnly {
		u.staged = newStaging()
		<-u.store.writer
	}
	return nil
}

func (u *Unit) writable() error {
	if u.readOnly {
		return ErrReadOnly
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	return nil
}

var (
	_ uow.UoWFactory  = Factory{}
	_ uow.UnitOfWork  = (*Unit)(nil)
	_ uow.CommitHooks = (*Unit)(nil)
)
