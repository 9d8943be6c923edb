package channels

import (
	"context"
	"fmt"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// EmailChannel sends alerts over SMTP. Alert bodies are HTML.
type EmailChannel struct {
	dialer  *gomail.Dialer
	from    string
	subject string
}

// NewEmailChannel builds the channel; missing credentials leave it disabled.
func NewEmailChannel(host string, port int, username, password, from string) *EmailChannel {
	if host == "" || username == "" || password == "" {
		logrus.Warn("email service not configured - email notifications disabled")
		return &EmailChannel{}
	}

	if from == "" {
		from = username
	}
	logrus.Info("email service initialized")
	return &EmailChannel{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		subject: "ProSorter - Low Coin Inventory Alert",
	}
}

var _ interfaces.Channel = (*EmailChannel)(nil)

func (c *EmailChannel) Kind() entities.ChannelKind {
	return entities.ChannelEmail
}

// Send delivers one message to one address.
func (c *EmailChannel) Send(ctx context.Context, target, message string) error {
	if c.dialer == nil {
		return entities.ErrChannelUnconfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", target)
	m.SetHeader("Subject", c.subject)
	m.SetBody("text/html", message)

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", target, err)
	}

	logrus.WithField("target", target).Info("email alert sent")
	return nil
}
