package dispatcher

import (
	"context"
	"sync/atomic"
	"testing"

	"prosorter/domain/entities"
	"prosorter/domain/events"
	"prosorter/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesAllHandlers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var calls atomic.Int64
	for i := 0; i < 3; i++ {
		bus.Subscribe(events.EventTypeCoinsUpdated, func(ctx context.Context, event events.Event) {
			calls.Add(1)
		})
	}

	require.NoError(t, bus.Publish(events.CoinsUpdatedEvent{Actor: "alice"}))
	bus.Wait()

	assert.Equal(t, int64(3), calls.Load())
}

func TestBus_PublishWithNoHandlers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	require.NoError(t, bus.Publish(events.CoinsUpdatedEvent{}))
	bus.Wait()
}

func TestBus_HandlerPanicDoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var survived atomic.Bool
	bus.Subscribe(events.EventTypeCoinsUpdated, func(ctx context.Context, event events.Event) {
		panic("boom")
	})
	bus.Subscribe(events.EventTypeCoinsUpdated, func(ctx context.Context, event events.Event) {
		survived.Store(true)
	})

	require.NoError(t, bus.Publish(events.CoinsUpdatedEvent{}))
	bus.Wait()

	assert.True(t, survived.Load())
}

func TestRegisterLedgerHandlers_PushesSnapshotToDevice(t *testing.T) {
	t.Parallel()

	snapshot := entities.CoinSnapshot{Coin1: 40, Coin2: 15, Coin5: 8, Coin10: 4, TotalAmount: 150}

	device := new(testhelpers.MockDeviceClient)
	device.On("PushUpdate", mock.Anything, snapshot).Return(nil)

	bus := NewBus()
	RegisterLedgerHandlers(bus, device, nil)

	require.NoError(t, bus.Publish(events.CoinsUpdatedEvent{Actor: "alice", Snapshot: snapshot}))
	bus.Wait()

	device.AssertExpectations(t)
}

func TestRegisterLedgerHandlers_UnreachableDeviceIsSwallowed(t *testing.T) {
	t.Parallel()

	device := new(testhelpers.MockDeviceClient)
	device.On("PushUpdate", mock.Anything, mock.Anything).Return(entities.ErrDeviceUnreachable)

	bus := NewBus()
	RegisterLedgerHandlers(bus, device, nil)

	require.NoError(t, bus.Publish(events.CoinsUpdatedEvent{}))
	bus.Wait()

	device.AssertExpectations(t)
}
