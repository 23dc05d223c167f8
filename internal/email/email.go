package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/gartanggali/resort-backend/config"
	"github.com/gartanggali/resort-backend/internal/kafka"
)

const stayDateFormat = "Jan 2, 2006"

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers the notification email for a consumed event. Unknown event
// types are skipped without error so the worker can roll forward.
func (s *Sender) Send(_ context.Context, event kafka.Event) error {
	subject, body := composeMessage(event)
	if subject == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", event.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s email to %s: %w", event.Type, event.Email, err)
	}
	return nil
}

func composeMessage(event kafka.Event) (subject, body string) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return "Your Gartang Gali Resort booking is confirmed",
			fmt.Sprintf("Hi %s,\n\nYour booking #%d is confirmed.\nCheck-in: %s\nCheck-out: %s\nGuests: %d\n\nYour ticket with the check-in QR code is available in your account.\n",
				event.GuestName, event.BookingID,
				event.CheckInDate.Format(stayDateFormat), event.CheckOutDate.Format(stayDateFormat),
				event.NumberOfPersons)
	case kafka.EventBookingVerified:
		return "Checked in at Gartang Gali Resort",
			fmt.Sprintf("Hi %s,\n\nBooking #%d has been verified at check-in. Enjoy your stay!\n",
				event.GuestName, event.BookingID)
	case kafka.EventPasswordResetOTP:
		return "Your password reset code",
			fmt.Sprintf("Your one-time password reset code is %s.\nIt expires in 10 minutes. If you did not request this, ignore this email.\n", event.OTP)
	default:
		return "", ""
	}
}
