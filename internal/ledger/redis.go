package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tmnkosi/bankgate/internal/models"
)

// maxTxRetries bounds optimistic retries when concurrent failures race
// on the same key.
const maxTxRetries = 5

// RedisStore keeps attempt records in Redis so throttling stays consistent
// across service instances. Records expire via TTL; no sweep is needed.
// The namespace keeps guards with different tiers (login, register) from
// sharing counters.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed attempt store under the given namespace.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "bankgate:attempt:" + namespace + ":",
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.AttemptRecord, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record models.AttemptRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding attempt record: %w", err)
	}
	if record.Expired(time.Now()) {
		return nil, nil
	}
	return &record, nil
}

// Update applies fn under WATCH so two concurrent failures for the same key
// serialize instead of under-counting. The transaction is retried on
// contention up to maxTxRetries times.
func (s *RedisStore) Update(ctx context.Context, key string, fn func(*models.AttemptRecord) *models.AttemptRecord) (*models.AttemptRecord, error) {
	redisKey := s.prefix + key

	var result *models.AttemptRecord

	txn := func(tx *redis.Tx) error {
		var current *models.AttemptRecord

		data, err := tx.Get(ctx, redisKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// no record yet
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			var record models.AttemptRecord
			if decodeErr := json.Unmarshal(data, &record); decodeErr != nil {
				return fmt.Errorf("decoding attempt record: %w", decodeErr)
			}
			if !record.Expired(time.Now()) {
				current = &record
			}
		}

		updated := fn(current)
		result = updated

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if updated == nil {
				pipe.Del(ctx, redisKey)
				return nil
			}

			encoded, encodeErr := json.Marshal(updated)
			if encodeErr != nil {
				return fmt.Errorf("encoding attempt record: %w", encodeErr)
			}

			ttl := time.Until(updated.ExpiresAt)
			if ttl <= 0 {
				pipe.Del(ctx, redisKey)
				return nil
			}

			pipe.Set(ctx, redisKey, encoded, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, redisKey)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("redis update: transaction contention on key %q", key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
