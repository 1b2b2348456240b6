package mail

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/policies"
)

var supported = []language.Tag{language.English, language.German, language.Spanish}

var matcher = language.NewMatcher(supported)

type copyText struct {
	subject  string
	headline string
	summary  string
}

var catalog = map[language.Tag]map[policies.NotificationEvent]copyText{
	language.English: {
		policies.NotifyCreated:        {"Booking %s received", "Thank you, %s.", "We received your booking for %s to %s."},
		policies.NotifyUpdated:        {"Booking %s updated", "Hello %s,", "Your booking for %s to %s was updated."},
		policies.NotifyStatusChanged:  {"Booking %s: status changed", "Hello %s,", "Your booking for %s to %s changed status."},
		policies.NotifyPickupReminder: {"Reminder: pickup for booking %s tomorrow", "Hello %s,", "Your rental from %s to %s starts tomorrow."},
	},
	language.German: {
		policies.NotifyCreated:        {"Buchung %s eingegangen", "Vielen Dank, %s.", "Wir haben Ihre Buchung vom %s bis %s erhalten."},
		policies.NotifyUpdated:        {"Buchung %s aktualisiert", "Hallo %s,", "Ihre Buchung vom %s bis %s wurde aktualisiert."},
		policies.NotifyStatusChanged:  {"Buchung %s: neuer Status", "Hallo %s,", "Der Status Ihrer Buchung vom %s bis %s hat sich geändert."},
		policies.NotifyPickupReminder: {"Erinnerung: Abholung für Buchung %s morgen", "Hallo %s,", "Ihre Miete vom %s bis %s beginnt morgen."},
	},
	language.Spanish: {
		policies.NotifyCreated:        {"Reserva %s recibida", "Gracias, %s.", "Hemos recibido su reserva del %s al %s."},
		policies.NotifyUpdated:        {"Reserva %s actualizada", "Hola %s,", "Su reserva del %s al %s ha sido actualizada."},
		policies.NotifyStatusChanged:  {"Reserva %s: cambio de estado", "Hola %s,", "El estado de su reserva del %s al %s ha cambiado."},
		policies.NotifyPickupReminder: {"Recordatorio: recogida de la reserva %s mañana", "Hola %s,", "Su alquiler del %s al %s empieza mañana."},
	},
}

var totalLabel = map[language.Tag]string{
	language.English: "Total",
	language.German:  "Gesamtbetrag",
	language.Spanish: "Total",
}

var statusLabel = map[language.Tag]string{
	language.English: "Status",
	language.German:  "Status",
	language.Spanish: "Estado",
}

// Message is a rendered notification.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// matchLocale picks the closest supported language for a BCP-47 tag.
func matchLocale(locale string) language.Tag {
	tag, _ := language.MatchStrings(matcher, locale)
	base, _ := tag.Base()
	for _, s := range supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return language.English
}

// Render produces the localized subject and bodies for n. Amounts are
// formatted with the locale's number conventions.
func Render(n policies.Notification) Message {
	tag := matchLocale(n.Locale)
	texts, ok := catalog[tag][n.Event]
	if !ok {
		texts = catalog[language.English][policies.NotifyUpdated]
	}
	p := message.NewPrinter(tag)
	b := n.Booking

	subject := fmt.Sprintf(texts.subject, b.Number)
	lines := []string{
		fmt.Sprintf(texts.headline, n.Customer.FullName),
		fmt.Sprintf(texts.summary, b.PickupDate+" "+b.PickupTime, b.ReturnDate+" "+b.ReturnTime),
		fmt.Sprintf("%s: %s", statusLabel[tag], b.StatusMessage),
		fmt.Sprintf("%s: %s", totalLabel[tag], formatAmount(p, b.Price.FinalTotal.Amount, b.Price.FinalTotal.Currency)),
	}
	if b.Status == "cancelled" && b.CancellationReason != "" {
		lines = append(lines, b.CancellationReason)
	}

	var html strings.Builder
	html.WriteString("<html><body>")
	for _, l := range lines {
		html.WriteString("<p>")
		html.WriteString(escape(l))
		html.WriteString("</p>")
	}
	html.WriteString("</body></html>")

	return Message{Subject: subject, Text: strings.Join(lines, "\n"), HTML: html.String()}
}

func formatAmount(p *message.Printer, cents int64, currency string) string {
	return p.Sprintf("%.2f %s", float64(cents)/100, currency)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}

// recipient returns the display name and address of the customer.
func recipient(c dto.Customer) (string, string) {
	return c.FullName, c.Email
}
