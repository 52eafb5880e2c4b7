package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPClient sends mail through an SMTP relay such as Gmail.
type SMTPClient struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPClient(host string, port int, username, password, from string) *SMTPClient {
	return &SMTPClient{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send returns when the relay answers or ctx is done, whichever comes first.
// gomail has no context support, so a relay that stalls keeps its dial
// goroutine alive until the connection drops.
func (c *SMTPClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	done := make(chan error, 1)
	m := c.compose(msg)
	go func() {
		done <- c.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email to %s: %w", msg.To, ctx.Err())
	}
}

func (c *SMTPClient) compose(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	return m
}
