package adapters

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"block-manifests/internal/ports"
)

type RedisStoreConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// RedisBlobStore keeps persisted manifests in redis so every process on a
// host (or a fleet) shares one copy.
type RedisBlobStore struct {
	client *redis.Client
	prefix string
}

func NewRedisBlobStore(cfg RedisStoreConfig) *RedisBlobStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisBlobStore{client: client, prefix: cfg.Prefix}
}

// NewRedisBlobStoreFromClient wraps an existing client.
func NewRedisBlobStoreFromClient(client *redis.Client, prefix string) *RedisBlobStore {
	return &RedisBlobStore{client: client, prefix: prefix}
}

func (s *RedisBlobStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("redis ping failed").
			WithCause(err)
	}
	return nil
}

func (s *RedisBlobStore) Close() error {
	return s.client.Close()
}

func (s *RedisBlobStore) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.blobKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeError("get", key, err)
	}
	return data, true, nil
}

// SetBlob stores data; ttl <= 0 keeps the key until deleted.
func (s *RedisBlobStore) SetBlob(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.blobKey(key), data, ttl).Err(); err != nil {
		return storeError("set", key, err)
	}
	log.Debug().Str("key", key).Int("bytes", len(data)).Dur("ttl", ttl).Msg("redis blob stored")
	return nil
}

func (s *RedisBlobStore) DeleteBlob(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.blobKey(key), s.timestampKey(key)).Err(); err != nil {
		return storeError("delete", key, err)
	}
	return nil
}

func (s *RedisBlobStore) GetTimestamp(ctx context.Context, key string) (int64, bool, error) {
	raw, err := s.client.Get(ctx, s.timestampKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeError("get timestamp", key, err)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Debug().Str("key", key).Str("value", raw).Msg("ignoring malformed redis timestamp")
		return 0, false, nil
	}
	return value, true, nil
}

func (s *RedisBlobStore) SetTimestamp(ctx context.Context, key string, value int64) error {
	if err := s.client.Set(ctx, s.timestampKey(key), strconv.FormatInt(value, 10), 0).Err(); err != nil {
		return storeError("set timestamp", key, err)
	}
	return nil
}

func (s *RedisBlobStore) blobKey(key string) string {
	return s.prefix + key
}

func (s *RedisBlobStore) timestampKey(key string) string {
	return s.prefix + key + ":ts"
}

func storeError(op string, key string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("blob store " + op + " failed for " + key).
		WithCause(err)
}

var _ ports.BlobStorePort = (*RedisBlobStore)(nil)
