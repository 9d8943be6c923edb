package services

import (
	"context"
	"errors"
	"testing"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"
	"prosorter/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T, settings entities.AlertSettings, channels ...interfaces.Channel) *notificationService {
	t.Helper()

	svc, err := NewNotificationService(context.Background(), testhelpers.NewMemoryStore(), channels...)
	require.NoError(t, err)

	ns := svc.(*notificationService)
	require.NoError(t, ns.UpdateSettings(context.Background(), settings))
	return ns
}

func TestNotificationService_EvaluateAndAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		settings   entities.AlertSettings
		snapshot   entities.CoinSnapshot
		setupSMS   func(*testhelpers.MockChannel)
		wantAlerts []entities.Denomination
	}{
		{
			name: "single denomination below threshold",
			settings: entities.AlertSettings{
				Thresholds: map[entities.Denomination]int64{
					entities.DenomOne: 0, entities.DenomTwo: 0, entities.DenomFive: 10, entities.DenomTen: 0,
				},
				SMSEnabled:   true,
				PhoneNumbers: []string{"+15550001111"},
			},
			// Three coins of denomination 5: value 15, count 3, threshold 10.
			snapshot: entities.CoinSnapshot{Coin1: 100, Coin2: 100, Coin5: 3, Coin10: 100, TotalAmount: 1315},
			setupSMS: func(sms *testhelpers.MockChannel) {
				sms.On("Send", mock.Anything, "+15550001111", mock.Anything).Return(nil).Once()
			},
			wantAlerts: []entities.Denomination{entities.DenomFive},
		},
		{
			name: "all denominations healthy",
			settings: entities.AlertSettings{
				Thresholds:   map[entities.Denomination]int64{entities.DenomOne: 10, entities.DenomTwo: 10, entities.DenomFive: 10, entities.DenomTen: 10},
				SMSEnabled:   true,
				PhoneNumbers: []string{"+15550001111"},
			},
			snapshot:   entities.CoinSnapshot{Coin1: 10, Coin2: 10, Coin5: 10, Coin10: 10, TotalAmount: 180},
			setupSMS:   func(sms *testhelpers.MockChannel) {},
			wantAlerts: nil,
		},
		{
			name: "empty inventory alerts every denomination",
			settings: entities.AlertSettings{
				Thresholds:   map[entities.Denomination]int64{entities.DenomOne: 5, entities.DenomTwo: 5, entities.DenomFive: 5, entities.DenomTen: 5},
				SMSEnabled:   true,
				PhoneNumbers: []string{"+15550001111"},
			},
			snapshot: entities.CoinSnapshot{},
			setupSMS: func(sms *testhelpers.MockChannel) {
				sms.On("Send", mock.Anything, "+15550001111", mock.Anything).Return(nil).Times(4)
			},
			wantAlerts: []entities.Denomination{entities.DenomOne, entities.DenomTwo, entities.DenomFive, entities.DenomTen},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sms := &testhelpers.MockChannel{ChannelKind: entities.ChannelSMS}
			tt.setupSMS(sms)

			svc := newTestNotifier(t, tt.settings, sms)
			alerts := svc.EvaluateAndAlert(context.Background(), tt.snapshot)

			var got []entities.Denomination
			for _, alert := range alerts {
				got = append(got, alert.Denomination)
			}
			assert.Equal(t, tt.wantAlerts, got)
			sms.AssertExpectations(t)
		})
	}
}

func TestNotificationService_PartialSendFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	settings := entities.AlertSettings{
		Thresholds:     map[entities.Denomination]int64{entities.DenomOne: 10, entities.DenomTwo: 0, entities.DenomFive: 0, entities.DenomTen: 0},
		SMSEnabled:     true,
		EmailEnabled:   true,
		PhoneNumbers:   []string{"+15550001111", "+15550002222"},
		EmailAddresses: []string{"ops@example.com"},
	}

	sms := &testhelpers.MockChannel{ChannelKind: entities.ChannelSMS}
	sms.On("Send", mock.Anything, "+15550001111", mock.Anything).Return(errors.New("twilio rejected message")).Once()
	sms.On("Send", mock.Anything, "+15550002222", mock.Anything).Return(nil).Once()

	email := &testhelpers.MockChannel{ChannelKind: entities.ChannelEmail}
	email.On("Send", mock.Anything, "ops@example.com", mock.Anything).Return(nil).Once()

	svc := newTestNotifier(t, settings, sms, email)
	alerts := svc.EvaluateAndAlert(context.Background(), entities.CoinSnapshot{Coin1: 2, TotalAmount: 2})

	require.Len(t, alerts, 1)
	require.Len(t, alerts[0].Sends, 3)

	assert.False(t, alerts[0].Sends[0].Sent)
	assert.Contains(t, alerts[0].Sends[0].Error, "twilio rejected")
	assert.True(t, alerts[0].Sends[1].Sent)
	assert.True(t, alerts[0].Sends[2].Sent)

	sms.AssertExpectations(t)
	email.AssertExpectations(t)
}

func TestNotificationService_UnconfiguredChannelMakesNoCalls(t *testing.T) {
	t.Parallel()

	settings := entities.AlertSettings{
		Thresholds:   map[entities.Denomination]int64{entities.DenomOne: 10, entities.DenomTwo: 0, entities.DenomFive: 0, entities.DenomTen: 0},
		SMSEnabled:   true,
		PhoneNumbers: []string{"+15550001111"},
	}

	// No SMS channel registered at all.
	svc := newTestNotifier(t, settings)
	alerts := svc.EvaluateAndAlert(context.Background(), entities.CoinSnapshot{})

	require.NotEmpty(t, alerts)
	require.Len(t, alerts[0].Sends, 1)
	assert.False(t, alerts[0].Sends[0].Sent)
	assert.Equal(t, entities.ErrChannelUnconfigured.Error(), alerts[0].Sends[0].Error)
}

func TestNotificationService_UpdateSettings(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemoryStore()
	svc, err := NewNotificationService(context.Background(), store)
	require.NoError(t, err)

	updated := entities.AlertSettings{
		Thresholds:   map[entities.Denomination]int64{entities.DenomOne: 3, entities.DenomTwo: 3, entities.DenomFive: 3, entities.DenomTen: 3},
		EmailEnabled: true,
		EmailAddresses: []string{
			"admin@example.com",
		},
	}
	require.NoError(t, svc.UpdateSettings(context.Background(), updated))
	assert.Equal(t, updated, svc.Settings())

	// A new service over the same store sees the persisted settings.
	reloaded, err := NewNotificationService(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, updated, reloaded.Settings())
}

func TestNotificationService_UpdateSettings_RejectsNegativeThreshold(t *testing.T) {
	t.Parallel()

	svc, err := NewNotificationService(context.Background(), testhelpers.NewMemoryStore())
	require.NoError(t, err)

	before := svc.Settings()
	err = svc.UpdateSettings(context.Background(), entities.AlertSettings{
		Thresholds: map[entities.Denomination]int64{entities.DenomOne: -1},
	})
	assert.Error(t, err)
	assert.Equal(t, before, svc.Settings())
}

func TestNotificationService_TestChannel(t *testing.T) {
	t.Parallel()

	email := &testhelpers.MockChannel{ChannelKind: entities.ChannelEmail}
	email.On("Send", mock.Anything, "admin@example.com", mock.Anything).Return(nil).Once()

	svc := newTestNotifier(t, entities.DefaultAlertSettings(), email)

	assert.NoError(t, svc.TestChannel(context.Background(), entities.ChannelEmail, "admin@example.com"))
	assert.ErrorIs(t, svc.TestChannel(context.Background(), entities.ChannelSMS, "+15550001111"), entities.ErrChannelUnconfigured)

	email.AssertExpectations(t)
}
