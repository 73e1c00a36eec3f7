package notify

import (
	"context"
	"fmt"
	"net/smtp"
)

// EmailChannel announces order events to an ops mailbox over SMTP.
type EmailChannel struct {
	addr string // host:port of the relay
	from string
	to   string
}

// NewEmailChannel returns nil when any setting is missing, disabling the channel.
func NewEmailChannel(addr, from, to string) *EmailChannel {
	if addr == "" || from == "" || to == "" {
		return nil
	}
	return &EmailChannel{addr: addr, from: from, to: to}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Notify(_ context.Context, msg Message) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", c.from, c.to, msg.Subject, msg.Body)
	return smtp.SendMail(c.addr, nil, c.from, []string{c.to}, []byte(body))
}
