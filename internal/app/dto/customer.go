package dto

import "carbooking/internal/domain/customer"

type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Locale    string `json:"locale"`
}

type CustomerCollection struct {
	Items []Customer `json:"items"`
}

func MapCustomer(c *customer.Customer) Customer {
	if c == nil {
		return Customer{}
	}
	return Customer{
		ID:        string(c.ID),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Email:     c.Email,
		Phone:     c.Phone,
		Locale:    c.Locale,
	}
}
