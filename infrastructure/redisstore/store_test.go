package redisstore

import (
	"context"
	"testing"

	"prosorter/domain/entities"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setupMock func(redismock.ClientMock)
		want      []byte
		wantErr   error
	}{
		{
			name: "hit",
			setupMock: func(m redismock.ClientMock) {
				m.ExpectGet("prosorter:coins").SetVal(`{"coin1":5}`)
			},
			want: []byte(`{"coin1":5}`),
		},
		{
			name: "missing key",
			setupMock: func(m redismock.ClientMock) {
				m.ExpectGet("prosorter:coins").RedisNil()
			},
			wantErr: entities.ErrKeyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, mock := redismock.NewClientMock()
			tt.setupMock(mock)

			store := NewWithClient(client)
			got, err := store.Get(context.Background(), "coins")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Put(t *testing.T) {
	t.Parallel()

	client, mock := redismock.NewClientMock()
	mock.ExpectSet("prosorter:notify:settings", []byte(`{}`), 0).SetVal("OK")

	store := NewWithClient(client)
	require.NoError(t, store.Put(context.Background(), "notify:settings", []byte(`{}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	client, mock := redismock.NewClientMock()
	mock.ExpectDel("prosorter:device:ip").SetVal(1)

	store := NewWithClient(client)
	require.NoError(t, store.Delete(context.Background(), "device:ip"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Increment(t *testing.T) {
	t.Parallel()

	client, mock := redismock.NewClientMock()
	mock.ExpectIncr("prosorter:finger:id").SetVal(7)

	store := NewWithClient(client)
	got, err := store.Increment(context.Background(), "finger:id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetMapsConnectionErrors(t *testing.T) {
	t.Parallel()

	client, mock := redismock.NewClientMock()
	mock.ExpectGet("prosorter:coins").SetErr(assert.AnError)

	store := NewWithClient(client)
	_, err := store.Get(context.Background(), "coins")
	assert.ErrorIs(t, err, entities.ErrStorageUnavailable)
}
