package money

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrDivideByZero     = errors.New("money: divide by zero")
)

// Money keeps amounts in integer minor units (cents) to avoid floating point drift.
type Money struct {
	Amount   int64  `json:"amount" bson:"amount"`
	Currency string `json:"currency" bson:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns an empty amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// DivRound divides the amount by n rounding half away from zero.
func (m Money) DivRound(n int64) (Money, error) {
	if n == 0 {
		return Money{}, ErrDivideByZero
	}
	q := m.Amount / n
	r := m.Amount % n
	if r < 0 {
		r = -r
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}
	if 2*r >= abs {
		if (m.Amount < 0) != (n < 0) {
			q--
		} else {
			q++
		}
	}
	return Money{Amount: q, Currency: m.Currency}, nil
}

// Min returns the smaller of two amounts with the same currency.
func (m Money) Min(other Money) Money {
	if other.Amount < m.Amount {
		return Money{Amount: other.Amount, Currency: m.Currency}
	}
	return m
}

// ClampZero floors negative amounts at zero.
func (m Money) ClampZero() Money {
	if m.Amount < 0 {
		return Money{Currency: m.Currency}
	}
	return m
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// String renders the amount as "123.45 EUR".
func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
