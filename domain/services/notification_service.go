package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const alertSettingsKey = "notify:settings"

// notificationService implements the NotificationService interface. The
// active settings are swapped atomically under a lock so no evaluation ever
// observes a half-updated configuration.
type notificationService struct {
	store    interfaces.KeyValueStore
	channels map[entities.ChannelKind]interfaces.Channel
	now      func() time.Time

	mu       sync.RWMutex
	settings entities.AlertSettings
}

// NewNotificationService creates a notification engine with the given
// channels, loading persisted settings from the store. Missing settings
// fall back to the defaults.
func NewNotificationService(
	ctx context.Context,
	store interfaces.KeyValueStore,
	channels ...interfaces.Channel,
) (interfaces.NotificationService, error) {
	s := &notificationService{
		store:    store,
		channels: make(map[entities.ChannelKind]interfaces.Channel, len(channels)),
		now:      time.Now,
		settings: entities.DefaultAlertSettings(),
	}
	for _, ch := range channels {
		s.channels[ch.Kind()] = ch
	}

	raw, err := store.Get(ctx, alertSettingsKey)
	if err != nil && err != entities.ErrKeyNotFound {
		return nil, fmt.Errorf("failed to load alert settings: %w", err)
	}
	if raw != nil {
		var settings entities.AlertSettings
		if err := json.Unmarshal(raw, &settings); err != nil {
			return nil, fmt.Errorf("malformed alert settings: %w", err)
		}
		if settings.Thresholds == nil {
			settings.Thresholds = entities.DefaultAlertSettings().Thresholds
		}
		s.settings = settings
	}

	return s, nil
}

// EvaluateAndAlert checks every denomination's coin count against its
// threshold and fans one alert per enabled channel out to all configured
// targets. All sends are attempted; per-target failures are collected in
// the result and never block the remaining targets or channels.
func (s *notificationService) EvaluateAndAlert(ctx context.Context, snapshot entities.CoinSnapshot) []entities.Alert {
	settings := s.Settings()

	var alerts []entities.Alert
	for _, d := range entities.Denominations {
		// Coin count interpretation: value held in the denomination divided
		// by its face value.
		count := snapshot.Value(d) / int64(d)
		threshold := settings.Threshold(d)
		if count >= threshold {
			continue
		}

		alert := entities.Alert{
			Denomination: d,
			CurrentCount: count,
			Threshold:    threshold,
		}
		alert.Sends = s.dispatch(ctx, settings, alert)
		alerts = append(alerts, alert)

		logrus.WithFields(logrus.Fields{
			"denomination": int64(d),
			"count":        count,
			"threshold":    threshold,
		}).Warn("coin inventory below threshold")
	}
	return alerts
}

// dispatch sends one low-coin alert through every enabled channel.
func (s *notificationService) dispatch(ctx context.Context, settings entities.AlertSettings, alert entities.Alert) []entities.AlertSend {
	var sends []entities.AlertSend

	if settings.SMSEnabled {
		message := s.formatSMSAlert(alert)
		for _, target := range settings.PhoneNumbers {
			sends = append(sends, s.send(ctx, entities.ChannelSMS, target, message))
		}
	}
	if settings.EmailEnabled {
		message := s.formatEmailAlert(alert)
		for _, target := range settings.EmailAddresses {
			sends = append(sends, s.send(ctx, entities.ChannelEmail, target, message))
		}
	}
	return sends
}

func (s *notificationService) send(ctx context.Context, kind entities.ChannelKind, target, message string) entities.AlertSend {
	result := entities.AlertSend{Channel: kind, Target: target}

	ch, ok := s.channels[kind]
	if !ok {
		result.Error = entities.ErrChannelUnconfigured.Error()
		return result
	}

	if err := ch.Send(ctx, target, message); err != nil {
		result.Error = err.Error()
		logrus.WithFields(logrus.Fields{
			"channel": kind,
			"target":  target,
		}).WithError(err).Error("alert send failed")
		return result
	}

	result.Sent = true
	return result
}

// Settings returns a copy of the active configuration.
func (s *notificationService) Settings() entities.AlertSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings persists the new configuration and swaps it in atomically.
func (s *notificationService) UpdateSettings(ctx context.Context, settings entities.AlertSettings) error {
	if settings.Thresholds == nil {
		settings.Thresholds = entities.DefaultAlertSettings().Thresholds
	}
	for d, t := range settings.Thresholds {
		if t < 0 {
			return fmt.Errorf("negative threshold %d for denomination %d", t, d)
		}
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode alert settings: %w", err)
	}
	if err := s.store.Put(ctx, alertSettingsKey, raw); err != nil {
		return fmt.Errorf("failed to persist alert settings: %w", err)
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	logrus.Info("notification settings updated")
	return nil
}

// TestChannel pushes a test message through one channel so operators can
// verify credentials from the settings page.
func (s *notificationService) TestChannel(ctx context.Context, kind entities.ChannelKind, target string) error {
	ch, ok := s.channels[kind]
	if !ok {
		return entities.ErrChannelUnconfigured
	}

	message := "ProSorter test: notification service is working correctly."
	if err := ch.Send(ctx, target, message); err != nil {
		return fmt.Errorf("test send via %s failed: %w", kind, err)
	}
	return nil
}

func (s *notificationService) formatSMSAlert(alert entities.Alert) string {
	return fmt.Sprintf(
		"ProSorter alert: Rs. %d coins running low. Current: %d, threshold: %d. Please refill soon.",
		alert.Denomination, alert.CurrentCount, alert.Threshold,
	)
}

func (s *notificationService) formatEmailAlert(alert entities.Alert) string {
	return fmt.Sprintf(
		"<h2>Low Coin Inventory Alert</h2>"+
			"<p><strong>Coin Type:</strong> Rs. %d</p>"+
			"<p><strong>Current Count:</strong> %d</p>"+
			"<p><strong>Threshold:</strong> %d</p>"+
			"<p><strong>Time:</strong> %s</p>"+
			"<p>Please refill the coin inventory as soon as possible.</p>",
		alert.Denomination, alert.CurrentCount, alert.Threshold,
		s.now().Format(time.RFC1123),
	)
}
