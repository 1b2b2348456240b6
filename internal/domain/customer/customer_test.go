package customer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer(CreateParams{
		ID:        "c-1",
		FirstName: " Ana ",
		LastName:  "Silva",
		Email:     " Ana.Silva@Example.COM ",
		Locale:    "pt_br",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, "ana.silva@example.com", c.Email)
	assert.Equal(t, "pt-BR", c.Locale)
	assert.Equal(t, "Ana Silva", c.FullName())
}

func TestNewCustomer_Rejects(t *testing.T) {
	base := CreateParams{ID: "c-1", FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"}

	noID := base
	noID.ID = ""
	_, err := NewCustomer(noID)
	assert.ErrorIs(t, err, ErrIDRequired)

	noLast := base
	noLast.LastName = ""
	_, err = NewCustomer(noLast)
	assert.ErrorIs(t, err, ErrNameRequired)

	noEmail := base
	noEmail.Email = "  "
	_, err = NewCustomer(noEmail)
	assert.ErrorIs(t, err, ErrEmailRequired)

	bad := base
	bad.Email = "ana-at-example"
	_, err = NewCustomer(bad)
	assert.ErrorIs(t, err, ErrEmailMalformed)
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en", NormalizeLocale(""))
	assert.Equal(t, "en", NormalizeLocale("not a tag!"))
	assert.Equal(t, "de", NormalizeLocale("DE"))
	assert.Equal(t, "fr-CA", NormalizeLocale("fr-ca"))
}

func TestCustomer_UpdateContactAndMatches(t *testing.T) {
	c, err := NewCustomer(CreateParams{ID: "c-1", FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"})
	require.NoError(t, err)

	c.UpdateContact("", "Souza", "+351 900 000", "es", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, "Souza", c.LastName)
	assert.Equal(t, "es", c.Locale)

	assert.True(t, c.Matches("souza"))
	assert.True(t, c.Matches("EXAMPLE.com"))
	assert.False(t, c.Matches("bob"))
	assert.True(t, c.Matches(""))
}
