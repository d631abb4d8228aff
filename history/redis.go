package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/go-redis/redis/v8"
)

// RedisStore keeps the log in a Redis list, newest at the head
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisClient parses a redis:// URL into a client
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisStore stores the log under <prefix>recentCalculations
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + StorageKey}
}

// Key returns the list key
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Prepend(ctx context.Context, rec entities.CalculationRecord, limit int) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode calculation: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, payload)
		pipe.LTrim(ctx, s.key, 0, int64(limit-1))
		return nil
	})
	return err
}

func (s *RedisStore) Load(ctx context.Context) ([]entities.CalculationRecord, error) {
	values, err := s.client.LRange(ctx, s.key, 0, MaxEntries-1).Result()
	if err != nil {
		return nil, err
	}

	records := make([]entities.CalculationRecord, 0, len(values))
	for _, v := range values {
		var rec entities.CalculationRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			logging.Warn("Skipping undecodable calculation entry", "key", s.key, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
