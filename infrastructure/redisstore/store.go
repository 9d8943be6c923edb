// Package redisstore implements the ledger's key-value substrate on Redis.
// Conditional writes use WATCH-based optimistic transactions with bounded
// internal retry.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"

	"github.com/redis/go-redis/v9"
)

const defaultMaxRetries = 5

// Store is a KeyValueStore backed by a single Redis instance.
type Store struct {
	client     *redis.Client
	keyPrefix  string
	maxRetries int
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Connection pooling
		PoolSize:     10,
		MinIdleConns: 2,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{
		client:     client,
		keyPrefix:  "prosorter:",
		maxRetries: defaultMaxRetries,
	}
}

var _ interfaces.KeyValueStore = (*Store)(nil)

func (s *Store) key(key string) string {
	return s.keyPrefix + key
}

// Get returns the value at key, or entities.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, entities.ErrKeyNotFound
	}
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	return value, nil
}

// Put unconditionally overwrites the value at key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

// Delete removes the key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return storageErr("del", key, err)
	}
	return nil
}

// Update applies fn inside a WATCH/MULTI/EXEC transaction. A concurrent
// write to the key aborts the transaction and the update is retried against
// the fresh value, up to maxRetries attempts.
func (s *Store) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	fullKey := s.key(key)

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var fnErr error

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			old, err := tx.Get(ctx, fullKey).Bytes()
			if err == redis.Nil {
				old = nil
			} else if err != nil {
				return err
			}

			next, err := fn(old)
			if err != nil {
				fnErr = err
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, fullKey, next, 0)
				return nil
			})
			return err
		}, fullKey)

		switch {
		case err == nil:
			return nil
		case fnErr != nil:
			// fn decides the outcome; its error passes through verbatim.
			return fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return storageErr("update", key, err)
		}
	}

	return entities.ErrConflictRetryExhausted
}

// Increment atomically increments the counter at key via INCR.
func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	value, err := s.client.Incr(ctx, s.key(key)).Result()
	if err != nil {
		return 0, storageErr("incr", key, err)
	}
	return value, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", entities.ErrStorageUnavailable, op, key, err)
}
