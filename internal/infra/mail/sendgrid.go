package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"carbooking/internal/app/policies"
)

var ErrRecipientMissing = errors.New("mail: customer has no email address")

// SendGridNotifier emails booking notifications through the SendGrid v3 API.
type SendGridNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) *SendGridNotifier {
	return &SendGridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridNotifier) Notify(ctx context.Context, n policies.Notification) error {
	name, address := recipient(n.Customer)
	if address == "" {
		return ErrRecipientMissing
	}
	msg := Render(n)
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(name, address)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	email.SetHeader("X-Booking-Number", n.Booking.Number)

	response, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("mail: send %s for %s: %w", n.Event, n.Booking.Number, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("mail: sendgrid status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

var _ policies.Notifier = (*SendGridNotifier)(nil)
