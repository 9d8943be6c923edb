// Package channels provides the SMS and email notification transports.
package channels

import (
	"context"
	"fmt"
	"strings"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSChannel sends alerts through the Twilio messaging API. A channel
// constructed without valid credentials is permanently disabled and every
// send returns ErrChannelUnconfigured without an external call.
type SMSChannel struct {
	client *twilio.RestClient
	from   string
}

// NewSMSChannel validates the Twilio credentials and builds the channel.
// Twilio account SIDs always start with "AC"; anything else (including the
// placeholder values shipped in sample configs) leaves the channel disabled.
func NewSMSChannel(accountSID, authToken, from string) *SMSChannel {
	if accountSID == "" || authToken == "" || !strings.HasPrefix(accountSID, "AC") {
		logrus.Warn("twilio SMS service not configured - SMS notifications disabled")
		return &SMSChannel{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	logrus.Info("twilio SMS service initialized")
	return &SMSChannel{client: client, from: from}
}

var _ interfaces.Channel = (*SMSChannel)(nil)

func (c *SMSChannel) Kind() entities.ChannelKind {
	return entities.ChannelSMS
}

// Send delivers one message to one phone number.
func (c *SMSChannel) Send(ctx context.Context, target, message string) error {
	if c.client == nil {
		return entities.ErrChannelUnconfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(target)
	params.SetFrom(c.from)
	params.SetBody(message)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", target, err)
	}

	logrus.WithField("target", target).Info("SMS alert sent")
	return nil
}
