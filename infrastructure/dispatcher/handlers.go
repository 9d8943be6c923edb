package dispatcher

import (
	"context"
	"errors"

	"prosorter/domain/entities"
	"prosorter/domain/events"
	"prosorter/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RegisterLedgerHandlers subscribes the post-commit reactions to coin
// updates: mirror the new state to the sorting device and evaluate the
// low-inventory thresholds. Either may be nil to skip that reaction.
func RegisterLedgerHandlers(bus *Bus, device interfaces.DeviceClient, notifier interfaces.NotificationService) {
	if device != nil {
		bus.Subscribe(events.EventTypeCoinsUpdated, func(ctx context.Context, event events.Event) {
			e, ok := event.(events.CoinsUpdatedEvent)
			if !ok {
				return
			}
			if err := device.PushUpdate(ctx, e.Snapshot); err != nil {
				// The device re-syncs on its own cycle; unreachable is
				// routine (powered off, mid-DHCP renew) and not worth an
				// error-level entry.
				if errors.Is(err, entities.ErrDeviceUnreachable) {
					log.WithError(err).Debug("skipped device sync")
					return
				}
				log.WithError(err).Error("failed to push coin update to device")
			}
		})
	}

	if notifier != nil {
		bus.Subscribe(events.EventTypeCoinsUpdated, func(ctx context.Context, event events.Event) {
			e, ok := event.(events.CoinsUpdatedEvent)
			if !ok {
				return
			}
			alerts := notifier.EvaluateAndAlert(ctx, e.Snapshot)
			for _, alert := range alerts {
				log.WithFields(log.Fields{
					"denomination": alert.Denomination,
					"count":        alert.CurrentCount,
					"threshold":    alert.Threshold,
					"sends":        len(alert.Sends),
				}).Info("low coin inventory alert dispatched")
			}
		})
	}
}
