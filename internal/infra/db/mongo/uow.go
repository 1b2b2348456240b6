package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	domaincustomer "carbooking/internal/domain/customer"
	domainfleet "carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/apperr"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	VehiclesRepo  domainfleet.Repository
	BookingsRepo  domainbooking.Repository
	CustomersRepo domaincustomer.Repository
}

// NewFactory builds the repositories over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:            db,
		VehiclesRepo:  NewVehicleRepository(db),
		BookingsRepo:  NewBookingRepository(db),
		CustomersRepo: NewCustomerRepository(db),
	}
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session. Write units run inside a snapshot
// transaction with majority writes; read-only units read without one.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{
		session:   session,
		vehicles:  f.VehiclesRepo,
		bookings:  f.BookingsRepo,
		customers: f.CustomersRepo,
		readOnly:  opts.ReadOnly,
	}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

	vehicles  domainfleet.Repository
	bookings  domainbooking.Repository
	customers domaincustomer.Repository
}

func (u *Unit) Vehicles() domainfleet.Repository {
	return u.vehicles
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Customers() domaincustomer.Repository {
	return u.customers
}

// Commit maps transient transaction failures onto persistence conflicts so
// the retry middleware re-runs the command.
func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return apperr.Wrap(apperr.CodePersistenceConflict, err)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
