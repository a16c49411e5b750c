// Package mailer sends the digest email over SMTP.
package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Message is one outbound HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message. Implementations are stateless and safe
// for concurrent use.
type Sender interface {
	Send(m Message) error
}

// SMTPSender sends mail through an authenticated SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(host string, port int, user, pass string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, pass)}
}

// Send delivers the message, failing on any transport error.
func (s *SMTPSender) Send(m Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", m.To, err)
	}
	return nil
}
