package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements the Store interface using Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore initializes a new RedisStore instance.
func NewRedisStore(cfg *StoreConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	return &RedisStore{client: rdb}, nil
}

func loginKey(provider string) string {
	return fmt.Sprintf("login:%s", provider)
}

// Initialize sets up necessary Redis structures if needed.
func (r *RedisStore) Initialize(ctx context.Context) error {
	// Redis is schema-less; nothing to do.
	return nil
}

// Close closes the Redis client.
func (r *RedisStore) Close(ctx context.Context) error {
	return r.client.Close()
}

// SaveLogin stores the latest resolved login for a provider.
func (r *RedisStore) SaveLogin(ctx context.Context, record LoginRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal LoginRecord: %w", err)
	}
	return r.client.Set(ctx, loginKey(record.Provider), data, 0).Err()
}

// GetLogin retrieves the latest login record for a provider.
func (r *RedisStore) GetLogin(ctx context.Context, provider string) (LoginRecord, error) {
	var record LoginRecord
	val, err := r.client.Get(ctx, loginKey(provider)).Result()
	if err == redis.Nil {
		return record, ErrNotFound
	}
	if err != nil {
		return record, err
	}
	err = json.Unmarshal([]byte(val), &record)
	return record, err
}

// ListLogins retrieves the latest record of every provider.
func (r *RedisStore) ListLogins(ctx context.Context) ([]LoginRecord, error) {
	var records []LoginRecord

	iter := r.client.Scan(ctx, 0, "login:*", 0).Iterator()
	for iter.Next(ctx) {
		val, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var record LoginRecord
		if err := json.Unmarshal([]byte(val), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteLogin removes the record for a provider.
func (r *RedisStore) DeleteLogin(ctx context.Context, provider string) error {
	return r.client.Del(ctx, loginKey(provider)).Err()
}
