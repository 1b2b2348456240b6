package memory

import (
	"slices"
	"sync"

	domainbooking "carbooking/internal/domain/booking"
	domaincustomer "carbooking/internal/domain/customer"
	domainfleet "carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/events"
)

// Store holds every record of the in-memory backend. Writers take the single
// write slot for the whole unit of work; mu guards the maps themselves.
type Store struct {
	writer chan struct{}

	mu        sync.RWMutex
	vehicles  map[domainfleet.VehicleID]*domainfleet.Vehicle
	bookings  map[domainbooking.BookingID]*domainbooking.Booking
	customers map[domaincustomer.ID]*domaincustomer.Customer
}

func NewStore() *Store {
	return &Store{
		writer:    make(chan struct{}, 1),
		vehicles:  make(map[domainfleet.VehicleID]*domainfleet.Vehicle),
		bookings:  make(map[domainbooking.BookingID]*domainbooking.Booking),
		customers: make(map[domaincustomer.ID]*domaincustomer.Customer),
	}
}

func cloneVehicle(v *domainfleet.Vehicle) *domainfleet.Vehicle {
	c := *v
	c.CustomRates = slices.Clone(v.CustomRates)
	c.Extras = slices.Clone(v.Extras)
	return &c
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.Extras = slices.Clone(b.Extras)
	c.Refunds = slices.Clone(b.Refunds)
	c.Price = b.Price.Copy()
	c.Recorder = events.Recorder{}
	return &c
}

func cloneCustomer(cu *domaincustomer.Customer) *domaincustomer.Customer {
	c := *cu
	return &c
}
