package store

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	// namespace keeps store keys apart from the search cache.
	namespace string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, namespace: "store:"}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.namespace+key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.namespace+key).Err()
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, s.namespace+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(s.namespace):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
