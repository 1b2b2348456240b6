package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

var (
	ErrIDRequired     = errors.New("customer: id is required")
	ErrNameRequired   = errors.New("customer: first and last name are required")
	ErrEmailRequired  = errors.New("customer: email is required")
	ErrEmailMalformed = errors.New("customer: email is malformed")
	ErrNotFound       = errors.New("customer: not found")
)

const DefaultLocale = "en"

var validate = validator.New()

type ID string

type Customer struct {
	ID        ID
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Locale    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SearchParams struct {
	Query string
	Limit int
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Customer, error)
	ByEmail(ctx context.Context, email string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
	Search(ctx context.Context, params SearchParams) ([]*Customer, error)
}

type CreateParams struct {
	ID        ID
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Locale    string
	CreatedAt time.Time
}

func NewCustomer(params CreateParams) (*Customer, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	c := &Customer{
		ID:        ID(id),
		FirstName: strings.TrimSpace(params.FirstName),
		LastName:  strings.TrimSpace(params.LastName),
		Email:     NormalizeEmail(params.Email),
		Phone:     strings.TrimSpace(params.Phone),
		Locale:    NormalizeLocale(params.Locale),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Customer) Validate() error {
	if c.FirstName == "" || c.LastName == "" {
		return ErrNameRequired
	}
	if c.Email == "" {
		return ErrEmailRequired
	}
	if err := validate.Var(c.Email, "email"); err != nil {
		return ErrEmailMalformed
	}
	return nil
}

// UpdateContact refreshes the details a returning customer supplies with a new
// booking. Empty values keep the stored ones.
func (c *Customer) UpdateContact(firstName, lastName, phone, locale string, now time.Time) {
	if v := strings.TrimSpace(firstName); v != "" {
		c.FirstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		c.LastName = v
	}
	if v := strings.TrimSpace(phone); v != "" {
		c.Phone = v
	}
	if strings.TrimSpace(locale) != "" {
		c.Locale = NormalizeLocale(locale)
	}
	c.touch(now)
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Matches reports whether the query is a case-insensitive substring of the
// customer's name or email.
func (c *Customer) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.FullName()), q) || strings.Contains(c.Email, q)
}

func (c *Customer) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	c.UpdatedAt = now.UTC()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeLocale canonicalises a BCP-47 tag, falling back to DefaultLocale
// for anything unparseable.
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(raw)
	if err != nil || tag == language.Und {
		return DefaultLocale
	}
	return tag.String()
}
