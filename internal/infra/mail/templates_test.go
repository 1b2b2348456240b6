package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/policies"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

func notification(event policies.NotificationEvent, locale string) policies.Notification {
	return policies.Notification{
		Event:  event,
		Locale: locale,
		Booking: dto.Booking{
			Number:        "CBR001",
			PickupDate:    "2030-06-03",
			PickupTime:    "10:00",
			ReturnDate:    "2030-06-05",
			ReturnTime:    "10:00",
			Status:        "pending",
			StatusMessage: "Booking is pending confirmation",
			Price:         pricing.Breakdown{FinalTotal: money.Must(1234550, "EUR")},
		},
		Customer: dto.Customer{FullName: "Ada <Lovelace>", Email: "ada@example.com"},
	}
}

func TestMatchLocale(t *testing.T) {
	assert.Equal(t, language.German, matchLocale("de-AT"))
	assert.Equal(t, language.Spanish, matchLocale("es"))
	assert.Equal(t, language.English, matchLocale("ja"))
	assert.Equal(t, language.English, matchLocale(""))
}

func TestRender_English(t *testing.T) {
	msg := Render(notification(policies.NotifyCreated, "en"))

	assert.Equal(t, "Booking CBR001 received", msg.Subject)
	assert.Contains(t, msg.Text, "Thank you, Ada <Lovelace>.")
	assert.Contains(t, msg.Text, "Total: 12,345.50 EUR")
	assert.Contains(t, msg.HTML, "Ada &lt;Lovelace&gt;")
}

func TestRender_GermanNumberFormat(t *testing.T) {
	msg := Render(notification(policies.NotifyPickupReminder, "de"))

	assert.Equal(t, "Erinnerung: Abholung für Buchung CBR001 morgen", msg.Subject)
	assert.Contains(t, msg.Text, "Gesamtbetrag: 12.345,50 EUR")
}

func TestRender_CancellationReason(t *testing.T) {
	n := notification(policies.NotifyStatusChanged, "en")
	n.Booking.Status = "cancelled"
	n.Booking.CancellationReason = "vehicle damaged"

	assert.Contains(t, Render(n).Text, "vehicle damaged")
}
