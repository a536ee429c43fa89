package secrets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flowgraph:secrets:"

// RedisStore keeps secrets in redis hashes, one hash per secret with value
// and version fields. Version bumps are atomic via HIncrBy.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(url string) (*RedisStore, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &RedisStore{client: redis.NewClient(options)}, nil
}

// NewRedisStoreFromClient wires an existing client, used by tests.
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, name string) (*Secret, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+name).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	value, ok := fields["value"]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}

	version, _ := strconv.Atoi(fields["version"])

	return &Secret{Name: name, Value: value, Version: version}, nil
}

func (s *RedisStore) Set(ctx context.Context, name, value string) (*Secret, error) {
	key := redisKeyPrefix + name

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "value", value)
	version := pipe.HIncrBy(ctx, key, "version", 1)
	pipe.SAdd(ctx, redisKeyPrefix+"names", name)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store secret: %w", err)
	}

	return &Secret{Name: name, Value: value, Version: int(version.Val())}, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, redisKeyPrefix+"names").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
