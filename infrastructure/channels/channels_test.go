package channels

import (
	"context"
	"testing"

	"prosorter/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestSMSChannel_Unconfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		accountSID string
		authToken  string
	}{
		{name: "empty credentials", accountSID: "", authToken: ""},
		{name: "placeholder SID", accountSID: "your-account-sid", authToken: "token"},
		{name: "missing token", accountSID: "AC0123456789abcdef", authToken: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ch := NewSMSChannel(tt.accountSID, tt.authToken, "+15550001111")
			assert.Equal(t, entities.ChannelSMS, ch.Kind())

			err := ch.Send(context.Background(), "+15552223333", "low coins")
			assert.ErrorIs(t, err, entities.ErrChannelUnconfigured)
		})
	}
}

func TestEmailChannel_Unconfigured(t *testing.T) {
	t.Parallel()

	ch := NewEmailChannel("", 587, "", "", "")
	assert.Equal(t, entities.ChannelEmail, ch.Kind())

	err := ch.Send(context.Background(), "ops@example.com", "<p>low coins</p>")
	assert.ErrorIs(t, err, entities.ErrChannelUnconfigured)
}

func TestEmailChannel_FromDefaultsToUsername(t *testing.T) {
	t.Parallel()

	ch := NewEmailChannel("smtp.example.com", 587, "alerts@example.com", "secret", "")
	assert.Equal(t, "alerts@example.com", ch.from)
}
