package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erpgo/pos-storefront/internal/model"
)

// catalogKey namespaces the blob; bump the suffix with the schema.
const catalogKey = "pos:catalog:v1"

// RedisStore keeps the whole catalog as one JSON blob under a single key.
// A single-key SET through a transaction pipeline gives the same
// all-or-nothing replace semantics as the file backend.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}
	return &RedisStore{rdb: rdb}, nil
}

// ReplaceAll swaps the stored blob for the given record set.
func (s *RedisStore) ReplaceAll(ctx context.Context, records []model.ProductRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return &StorageError{Op: "replace", Err: err}
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, catalogKey, data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return &StorageError{Op: "replace", Err: err}
	}
	return nil
}

// ReadAll returns the stored records, empty if the key was never set.
func (s *RedisStore) ReadAll(ctx context.Context) ([]model.ProductRecord, error) {
	data, err := s.rdb.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.ProductRecord{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	var records []model.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	return records, nil
}

// Close releases the client connection pool.
func (s *RedisStore) Close() error { return s.rdb.Close() }
