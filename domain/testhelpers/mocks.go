package testhelpers

import (
	"context"

	"prosorter/domain/entities"
	"prosorter/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockKeyValueStore is a mock implementation of KeyValueStore
type MockKeyValueStore struct {
	mock.Mock
}

func (m *MockKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKeyValueStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockKeyValueStore) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	args := m.Called(ctx, key, fn)
	return args.Error(0)
}

func (m *MockKeyValueStore) Increment(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, entry *entities.ActivityEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivityRepository) Query(ctx context.Context, filter entities.ActivityFilter) ([]*entities.ActivityEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ActivityEntry), args.Error(1)
}

func (m *MockActivityRepository) Clear(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockChannel is a mock implementation of Channel
type MockChannel struct {
	mock.Mock
	ChannelKind entities.ChannelKind
}

func (m *MockChannel) Kind() entities.ChannelKind {
	return m.ChannelKind
}

func (m *MockChannel) Send(ctx context.Context, target, message string) error {
	args := m.Called(ctx, target, message)
	return args.Error(0)
}

// MockDeviceClient is a mock implementation of DeviceClient
type MockDeviceClient struct {
	mock.Mock
}

func (m *MockDeviceClient) PushUpdate(ctx context.Context, snapshot entities.CoinSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockDeviceClient) Enroll(ctx context.Context, fingerID int64) error {
	args := m.Called(ctx, fingerID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
