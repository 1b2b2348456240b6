package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	domainbooking "carbooking/internal/domain/booking"
	domaincustomer "carbooking/internal/domain/customer"
	domainfleet "carbooking/internal/domain/fleet"
)

type vehicleRepository struct{ u *Unit }

func (r vehicleRepository) lookup(id domainfleet.VehicleID) (*domainfleet.Vehicle, bool) {
	if r.u.staged != nil {
		if v, ok := r.u.staged.vehicles[id]; ok {
			return v, true
		}
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	v, ok := r.u.store.vehicles[id]
	return v, ok
}

func (r vehicleRepository) ByID(ctx context.Context, id domainfleet.VehicleID) (*domainfleet.Vehicle, error) {
	v, ok := r.lookup(id)
	if !ok {
		return nil, domainfleet.ErrVehicleNotFound
	}
	return cloneVehicle(v), nil
}

func (r vehicleRepository) Save(ctx context.Context, v *domainfleet.Vehicle) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.staged.vehicles[v.ID] = cloneVehicle(v)
	return nil
}

func (r vehicleRepository) Search(ctx context.Context, params domainfleet.SearchParams) ([]*domainfleet.Vehicle, error) {
	all := make(map[domainfleet.VehicleID]*domainfleet.Vehicle)
	r.u.store.mu.RLock()
	for id, v := range r.u.store.vehicles {
		all[id] = v
	}
	r.u.store.mu.RUnlock()
	if r.u.staged != nil {
		for id, v := range r.u.staged.vehicles {
			all[id] = v
		}
	}
	location := strings.ToLower(strings.TrimSpace(params.Location))
	out := make([]*domainfleet.Vehicle, 0, len(all))
	for _, v := range all {
		if params.Type != "" && !strings.EqualFold(v.Type, params.Type) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(v.Location), location) {
			continue
		}
		out = append(out, cloneVehicle(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r vehicleRepository) BumpBookingVersion(ctx context.Context, id domainfleet.VehicleID, expected int64) (int64, error) {
	if err := r.u.writable(); err != nil {
		return 0, err
	}
	v, ok := r.lookup(id)
	if !ok {
		return 0, domainfleet.ErrVehicleNotFound
	}
	if v.BookingVersion != expected {
		return 0, domainfleet.ErrConcurrentUpdate
	}
	next := cloneVehicle(v)
	next.BookingVersion++
	r.u.staged.vehicles[id] = next
	return next.BookingVersion, nil
}

type bookingRepository struct{ u *Unit }

// snapshot merges committed and staged bookings.
func (r bookingRepository) snapshot() map[domainbooking.BookingID]*domainbooking.Booking {
	r.u.store.mu.RLock()
	all := make(map[domainbooking.BookingID]*domainbooking.Booking, len(r.u.store.bookings))
	for id, b := range r.u.store.bookings {
		all[id] = b
	}
	r.u.store.mu.RUnlock()
	if r.u.staged != nil {
		for id, b := range r.u.staged.bookings {
			all[id] = b
		}
	}
	return all
}

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if r.u.staged != nil {
		if b, ok := r.u.staged.bookings[id]; ok {
			return cloneBooking(b), nil
		}
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	b, ok := r.u.store.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r bookingRepository) ByNumber(ctx context.Context, number string) (*domainbooking.Booking, error) {
	for _, b := range r.snapshot() {
		if b.Number == number {
			return cloneBooking(b), nil
		}
	}
	return nil, domainbooking.ErrBookingNotFound
}

func (r bookingRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	for _, b := range r.snapshot() {
		if b.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r bookingRepository) ListByVehicle(ctx context.Context, vehicleID domainfleet.VehicleID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.VehicleID == vehicleID }), nil
}

func (r bookingRepository) ListByPickupDate(ctx context.Context, date time.Time) ([]*domainbooking.Booking, error) {
	y, m, d := date.UTC().Date()
	return r.filter(func(b *domainbooking.Booking) bool {
		by, bm, bd := b.PickupDate.Date()
		return by == y && bm == m && bd == d
	}), nil
}

func (r bookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.snapshot() {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PickupDate.Equal(out[j].PickupDate) {
			return out[i].PickupDate.Before(out[j].PickupDate)
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (r bookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	b.Version++
	r.u.staged.bookings[b.ID] = cloneBooking(b)
	return nil
}

type customerRepository struct{ u *Unit }

func (r customerRepository) snapshot() map[domaincustomer.ID]*domaincustomer.Customer {
	r.u.store.mu.RLock()
	all := make(map[domaincustomer.ID]*domaincustomer.Customer, len(r.u.store.customers))
	for id, c := range r.u.store.customers {
		all[id] = c
	}
	r.u.store.mu.RUnlock()
	if r.u.staged != nil {
		for id, c := range r.u.staged.customers {
			all[id] = c
		}
	}
	return all
}

func (r customerRepository) ByID(ctx context.Context, id domaincustomer.ID) (*domaincustomer.Customer, error) {
	c, ok := r.snapshot()[id]
	if !ok {
		return nil, domaincustomer.ErrNotFound
	}
	return cloneCustomer(c), nil
}

func (r customerRepository) ByEmail(ctx context.Context, email string) (*domaincustomer.Customer, error) {
	email = domaincustomer.NormalizeEmail(email)
	if email == "" {
		return nil, domaincustomer.ErrNotFound
	}
	for _, c := range r.snapshot() {
		if c.Email == email {
			return cloneCustomer(c), nil
		}
	}
	return nil, domaincustomer.ErrNotFound
}

func (r customerRepository) Save(ctx context.Context, c *domaincustomer.Customer) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.staged.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (r customerRepository) Search(ctx context.Context, params domaincustomer.SearchParams) ([]*domaincustomer.Customer, error) {
	out := make([]*domaincustomer.Customer, 0)
	for _, c := range r.snapshot() {
		if c.Matches(params.Query) {
			out = append(out, cloneCustomer(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].Email < out[j].Email
	})
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

var (
	_ domainfleet.Repository    = vehicleRepository{}
	_ domainbooking.Repository  = bookingRepository{}
	_ domaincustomer.Repository = customerRepository{}
)
